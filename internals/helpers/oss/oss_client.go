package helper

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log"
	"math"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/image/draw"
)

func getEnv(k string) string { return strings.TrimSpace(os.Getenv(k)) }

func envInt(key string, def int) int {
	if v := getEnv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

func envFloat(key string, def float32) float32 {
	if v := getEnv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil && f >= 0 {
			return float32(f)
		}
	}
	return def
}

// upload guard used by the media controllers
var maxUploadSize = int64(5 * 1024 * 1024)

/* =======================================================================
   WebP config (ENV-driven) + per-call options
======================================================================= */

type WebPOptions struct {
	MaxW        int // resize bound (keep aspect)
	MaxH        int
	TargetKB    int // target size; 0 = quality-only encode
	Quality     float32
	MinQ        float32 // binary-search bounds when TargetKB > 0
	MaxQ        float32
	ToleranceKB int
	MinW        int // floor for iterative downscale
	MinH        int
	ScaleStep   float32 // shrink factor per iteration (0<step<1)
}

func defaultWebPOptionsFromEnv() WebPOptions {
	return WebPOptions{
		MaxW:        envInt("IMAGE_WEBP_MAX_W", 1600),
		MaxH:        envInt("IMAGE_WEBP_MAX_H", 1600),
		TargetKB:    envInt("IMAGE_WEBP_TARGET_KB", 0),
		Quality:     envFloat("IMAGE_WEBP_QUALITY", 80),
		MinQ:        envFloat("IMAGE_WEBP_MIN_Q", 45),
		MaxQ:        envFloat("IMAGE_WEBP_MAX_Q", 85),
		ToleranceKB: envInt("IMAGE_WEBP_TOLERANCE_KB", 8),
		MinW:        envInt("IMAGE_WEBP_MIN_W", 480),
		MinH:        envInt("IMAGE_WEBP_MIN_H", 480),
		ScaleStep:   envFloat("IMAGE_WEBP_SCALE_STEP", 0.85),
	}
}

/* =======================================================================
   Decode (jpeg/png/webp) from []byte with MIME sniff
======================================================================= */

func decodeImage(all []byte, filename string) (image.Image, error) {
	if len(all) == 0 {
		return nil, fmt.Errorf("empty file")
	}
	head := all
	if len(head) > 512 {
		head = head[:512]
	}
	ct := http.DetectContentType(head)

	var (
		img image.Image
		err error
	)

	switch {
	case strings.Contains(ct, "jpeg"):
		img, err = jpeg.Decode(bytes.NewReader(all))
	case strings.Contains(ct, "png"):
		img, err = png.Decode(bytes.NewReader(all))
	case strings.Contains(ct, "webp"):
		img, err = webp.Decode(bytes.NewReader(all))
	default:
		// fallback by extension
		ext := strings.ToLower(filepath.Ext(filename))
		switch ext {
		case ".jpg", ".jpeg":
			img, err = jpeg.Decode(bytes.NewReader(all))
		case ".png":
			img, err = png.Decode(bytes.NewReader(all))
		case ".webp":
			img, err = webp.Decode(bytes.NewReader(all))
		default:
			return nil, fmt.Errorf("unsupported format: %s / %s", ct, ext)
		}
	}
	return img, err
}

// initial downscale (keep aspect): imaging.Fit is a no-op when already small
func downscaleIfNeeded(src image.Image, maxW, maxH int) image.Image {
	if maxW <= 0 && maxH <= 0 {
		return src
	}
	b := src.Bounds()
	if (maxW > 0 && b.Dx() > maxW) || (maxH > 0 && b.Dy() > maxH) {
		return imaging.Fit(src, maxW, maxH, imaging.CatmullRom)
	}
	return src
}

/* =======================================================================
   Encode WebP
   - TargetKB > 0 → binary-search quality until <= target+tol,
     iteratively shrinking dimensions when quality alone is not enough
   - TargetKB = 0 → single encode at Quality
======================================================================= */

func encodeToWebP(img image.Image, opt WebPOptions) ([]byte, error) {
	encodeQ := func(im image.Image, q float32) ([]byte, error) {
		buf := new(bytes.Buffer)
		if err := webp.Encode(buf, im, &webp.Options{Lossless: false, Quality: q}); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	if opt.TargetKB <= 0 {
		q := opt.Quality
		if q <= 0 {
			q = 80
		}
		return encodeQ(img, q)
	}

	target := opt.TargetKB * 1024
	tol := opt.ToleranceKB * 1024
	if tol <= 0 {
		tol = 8 * 1024
	}
	minQ, maxQ := opt.MinQ, opt.MaxQ
	if minQ <= 0 {
		minQ = 45
	}
	if maxQ <= 0 {
		maxQ = 85
	}
	if minQ > maxQ {
		minQ, maxQ = maxQ, minQ
	}
	minW, minH := opt.MinW, opt.MinH
	if minW <= 0 {
		minW = 480
	}
	if minH <= 0 {
		minH = 480
	}
	step := opt.ScaleStep
	if step <= 0 || step >= 1 {
		step = 0.85
	}

	cur := img
	last := []byte(nil)

	for attempt := 0; attempt < 6; attempt++ {
		// binary-search quality at the current dimensions
		low, high := minQ, maxQ
		best := []byte(nil)

		for i := 0; i < 8; i++ {
			q := (low + high) / 2
			data, err := encodeQ(cur, q)
			if err != nil {
				return nil, err
			}
			if len(data) <= target+tol {
				best = data
				high = q
			} else {
				low = q
			}
		}
		if best == nil {
			var err error
			best, err = encodeQ(cur, low)
			if err != nil {
				return nil, err
			}
		}
		last = best

		if len(best) <= target+tol {
			return best, nil
		}

		b := cur.Bounds()
		cw, ch := b.Dx(), b.Dy()
		if cw <= minW && ch <= minH {
			return best, nil
		}

		// scale estimate: sqrt of target/actual with 0.95 safety, clamped to step
		ratio := float64(target+tol) / float64(len(best))
		scale := math.Sqrt(ratio) * 0.95
		if scale >= 1.0 || scale > float64(step) {
			scale = float64(step)
		} else if scale < 0.5 {
			scale = 0.5
		}

		nw := int(math.Round(float64(cw) * scale))
		nh := int(math.Round(float64(ch) * scale))
		if nw < minW {
			nw = minW
		}
		if nh < minH {
			nh = minH
		}
		if nw >= cw && nh >= ch {
			nw = int(float64(cw) * float64(step))
			nh = int(float64(ch) * float64(step))
			if nw < minW {
				nw = minW
			}
			if nh < minH {
				nh = minH
			}
		}

		dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
		draw.CatmullRom.Scale(dst, dst.Bounds(), cur, b, draw.Over, nil)
		cur = dst
	}

	return last, nil
}

// ConvertToWebP: read → decode → resize → encode, options from ENV
func ConvertToWebP(file multipart.File, filename string) ([]byte, error) {
	return ConvertToWebPWithOptions(file, filename, defaultWebPOptionsFromEnv())
}

func ConvertToWebPWithOptions(file multipart.File, filename string, opts WebPOptions) ([]byte, error) {
	all, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	img, err := decodeImage(all, filename)
	if err != nil {
		return nil, err
	}
	img = downscaleIfNeeded(img, opts.MaxW, opts.MaxH)
	return encodeToWebP(img, opts)
}

// Thumbnail produces a small webp preview (facility gallery grid).
func Thumbnail(file multipart.File, filename string, size int) ([]byte, error) {
	all, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	img, err := decodeImage(all, filename)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = 320
	}
	th := imaging.Thumbnail(img, size, size, imaging.CatmullRom)
	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, th, &webp.Options{Quality: 70}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

/* =======================================================================
   OSS Service
======================================================================= */

type OSSService struct {
	Client     *oss.Client
	Bucket     *oss.Bucket
	Endpoint   string
	BucketName string
	Prefix     string // optional: "media/"
}

func NewOSSServiceFromEnv(prefix string) (*OSSService, error) {
	endpoint := getEnv("ALI_OSS_ENDPOINT")
	ak := getEnv("ALI_OSS_ACCESS_KEY")
	sk := getEnv("ALI_OSS_SECRET_KEY")
	sts := getEnv("ALI_OSS_SECURITY_TOKEN")
	bucketName := getEnv("ALI_OSS_BUCKET")
	if endpoint == "" || ak == "" || sk == "" || bucketName == "" {
		return nil, fmt.Errorf("missing env: ALI_OSS_ENDPOINT/ACCESS_KEY/SECRET_KEY/BUCKET")
	}

	var (
		client *oss.Client
		err    error
	)
	if sts != "" {
		client, err = oss.New(endpoint, ak, sk, oss.SecurityToken(sts))
	} else {
		client, err = oss.New(endpoint, ak, sk)
	}
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}

	bkt, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("client.Bucket: %w", err)
	}

	if loc, err := client.GetBucketLocation(bucketName); err != nil {
		if se, ok := err.(oss.ServiceError); ok && se.StatusCode == 403 && se.Code == "AccessDenied" {
			log.Printf("[OSS] warn: skip location check due to AccessDenied (bucket=%s). Continuing.", bucketName)
		} else {
			return nil, fmt.Errorf("verify bucket: %w", err)
		}
	} else {
		log.Printf("[OSS] bucket %s location: %s", bucketName, loc)
	}

	return &OSSService{
		Client:     client,
		Bucket:     bkt,
		Endpoint:   endpoint,
		BucketName: bucketName,
		Prefix:     strings.Trim(prefix, "/"),
	}, nil
}

/* =======================================================================
   Upload helpers
======================================================================= */

// UploadAsWebP recompresses to webp (ENV options) and uploads under keyPrefix.
func (s *OSSService) UploadAsWebP(ctx context.Context, fh *multipart.FileHeader, keyPrefix string) (string, error) {
	return s.UploadAsWebPWithOptions(ctx, fh, keyPrefix, defaultWebPOptionsFromEnv())
}

func (s *OSSService) UploadAsWebPWithOptions(ctx context.Context, fh *multipart.FileHeader, keyPrefix string, opt WebPOptions) (string, error) {
	if fh == nil {
		return "", fmt.Errorf("nil file header")
	}
	if fh.Size > maxUploadSize {
		return "", fmt.Errorf("file too large (max %d bytes)", maxUploadSize)
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer src.Close()

	webpData, err := ConvertToWebPWithOptions(src, fh.Filename, opt)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unsupported format") {
			return "", fiber.NewError(fiber.StatusUnsupportedMediaType, "Unsupported image format (use jpg/png/webp)")
		}
		return "", err
	}

	key := joinParts(s.Prefix, keyPrefix, randHex(8)+"-"+slugify(strings.TrimSuffix(fh.Filename, filepath.Ext(fh.Filename)))+".webp")
	if err := s.UploadStream(ctx, key, bytes.NewReader(webpData), "image/webp"); err != nil {
		return "", err
	}
	return s.PublicURL(key), nil
}

func (s *OSSService) UploadStream(ctx context.Context, key string, r io.Reader, contentType string) error {
	opts := []oss.Option{
		oss.ContentType(contentType),
		oss.ContentDisposition("inline"),
		oss.CacheControl("public, max-age=31536000, immutable"),
	}
	if err := s.Bucket.PutObject(key, r, opts...); err != nil {
		return fmt.Errorf("oss put %s: %w", key, err)
	}
	return nil
}

func (s *OSSService) DeleteObject(ctx context.Context, key string) error {
	return s.Bucket.DeleteObject(key)
}

func (s *OSSService) PublicURL(key string) string {
	ep := strings.TrimPrefix(strings.TrimPrefix(s.Endpoint, "https://"), "http://")
	return fmt.Sprintf("https://%s.%s/%s", s.BucketName, ep, key)
}

// ExtractKeyFromPublicURL reverses PublicURL so admins can delete by URL.
func ExtractKeyFromPublicURL(publicURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(publicURL))
	if err != nil {
		return "", err
	}
	key := strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", fmt.Errorf("empty object key in url")
	}
	return key, nil
}

func (s *OSSService) DeleteByPublicURL(ctx context.Context, publicURL string) error {
	key, err := ExtractKeyFromPublicURL(publicURL)
	if err != nil {
		return err
	}
	return s.DeleteObject(ctx, key)
}

/* ===================== key building ===================== */

// UploadImageToOSSScoped: one-shot helper scoped per academy category
// ("courses", "instructors", "facilities").
func UploadImageToOSSScoped(category string, fh *multipart.FileHeader) (string, error) {
	svc, err := NewOSSServiceFromEnv("media")
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	return svc.UploadAsWebP(ctx, fh, safePart(category))
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prevDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		out = "file"
	}
	return out
}

func randHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

func safePart(s string) string {
	s = slugify(s)
	if s == "" {
		return "misc"
	}
	return s
}

func joinParts(parts ...string) string {
	clean := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			clean = append(clean, p)
		}
	}
	return strings.Join(clean, "/")
}
