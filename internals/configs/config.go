package configs

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

var (
	JWTSecret        string
	JWTRefreshSecret string
	GoogleClientID   string

	MidtransServerKey string
	MidtransUseProd   bool

	// PaymentGatewayProvider picks the gateway adapter: "simulated" | "midtrans"
	PaymentGatewayProvider string

	// NotifyRequired: when true, a failed confirmation dispatch fails the
	// enrollment step instead of being logged and ignored.
	NotifyRequired bool
)

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("⚠️ .env file not found, using system ENV")
		} else {
			log.Println("✅ .env file loaded!")
		}
	} else {
		log.Println("🚀 Running in Railway, using system ENV")
	}

	JWTSecret = GetEnv("JWT_SECRET")
	JWTRefreshSecret = GetEnv("JWT_REFRESH_SECRET")
	GoogleClientID = GetEnv("GOOGLE_CLIENT_ID")

	MidtransServerKey = GetEnv("MIDTRANS_SERVER_KEY")
	MidtransUseProd = GetEnvBool("MIDTRANS_USE_PROD", false)

	PaymentGatewayProvider = strings.ToLower(GetEnv("PAYMENT_GATEWAY_PROVIDER", "simulated"))
	NotifyRequired = GetEnvBool("NOTIFY_REQUIRED", false)

	if JWTSecret == "" {
		log.Println("❌ JWT_SECRET is not set!")
	}
	if JWTRefreshSecret == "" {
		log.Println("❌ JWT_REFRESH_SECRET is not set!")
	}
	if PaymentGatewayProvider == "midtrans" && MidtransServerKey == "" {
		log.Println("❌ PAYMENT_GATEWAY_PROVIDER=midtrans but MIDTRANS_SERVER_KEY is not set!")
	}
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

func GetEnvBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// =======================
// GORM LOGGER CUSTOM
// =======================
type GormLogger struct {
	SlowThreshold time.Duration
	LogLevel      gormLogger.LogLevel
}

func NewGormLogger() gormLogger.Interface {
	return &GormLogger{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      gormLogger.Warn,
	}
}

func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	l.LogLevel = level
	return l
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	log.Printf("[INFO] "+msg, data...)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	log.Printf("[WARN] "+msg, data...)
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	log.Printf("[ERROR] "+msg, data...)
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()
	file := utils.FileWithLineNum()

	if err != nil {
		log.Printf("[ERROR] %s | %v | %s | %d rows | %s", file, err, elapsed, rows, sql)
	} else if elapsed > l.SlowThreshold {
		log.Printf("[SLOW SQL] %s | %s | %d rows | %s", file, elapsed, rows, sql)
	}
}
