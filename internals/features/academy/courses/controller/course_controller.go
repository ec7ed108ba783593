package controller

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"kartacademy_backend/internals/features/academy/courses/dto"
	"kartacademy_backend/internals/features/academy/courses/model"
	helper "kartacademy_backend/internals/helpers"
	ossHelper "kartacademy_backend/internals/helpers/oss"
)

type CourseController struct {
	DB        *gorm.DB
	Validator *validator.Validate
}

func NewCourseController(db *gorm.DB) *CourseController {
	return &CourseController{DB: db, Validator: validator.New()}
}

/* ===================== Public ===================== */

// GET /api/public/courses
func (h *CourseController) ListActive(c *fiber.Ctx) error {
	p := helper.ParseFiber(c, "created_at", "desc", helper.DefaultOpts)

	q := h.DB.WithContext(c.Context()).Model(&model.Course{}).
		Where("course_is_active = TRUE")
	if level := c.Query("level"); level != "" {
		q = q.Where("course_level = ?", level)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to load courses")
	}

	order, err := p.SafeOrderClause(map[string]string{
		"created_at": "course_created_at",
		"name":       "course_name",
		"price":      "course_price_amount",
		"start_date": "course_start_date",
	}, "created_at")
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}

	var rows []model.Course
	if err := q.Order(order[len("ORDER BY "):]).
		Limit(p.Limit()).Offset(p.Offset()).
		Find(&rows).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to load courses")
	}

	return helper.Success(c, "OK", fiber.Map{
		"items": rows,
		"meta":  helper.BuildMeta(total, p),
	})
}

// GET /api/public/courses/:slug
func (h *CourseController) GetBySlug(c *fiber.Ctx) error {
	var m model.Course
	err := h.DB.WithContext(c.Context()).
		First(&m, "course_slug = ? AND course_is_active = TRUE", c.Params("slug")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return helper.Error(c, fiber.StatusNotFound, "Course not found")
	}
	if err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to load course")
	}
	return helper.Success(c, "OK", m)
}

// GET /api/public/courses/calendar
// Upcoming + running courses for the public calendar page.
func (h *CourseController) Calendar(c *fiber.Ctx) error {
	now := time.Now()
	var rows []model.Course
	if err := h.DB.WithContext(c.Context()).
		Where("course_is_active = TRUE").
		Where("course_end_date IS NULL OR course_end_date > ?", now).
		Order("course_start_date ASC NULLS LAST").
		Limit(100).
		Find(&rows).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to load calendar")
	}
	return helper.Success(c, "OK", rows)
}

/* ===================== Admin ===================== */

// POST /api/a/courses
func (h *CourseController) Create(c *fiber.Ctx) error {
	var req dto.CreateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid JSON")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	m := req.ToModel()
	if err := h.DB.WithContext(c.Context()).Create(m).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Create course failed")
	}
	return helper.SuccessWithCode(c, fiber.StatusCreated, "Course created", m)
}

// PATCH /api/a/courses/:id
func (h *CourseController) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid id")
	}

	var req dto.UpdateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid JSON")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	patch := req.ApplyPatch()
	if len(patch) == 0 {
		return helper.Error(c, fiber.StatusBadRequest, "Nothing to update")
	}

	res := h.DB.WithContext(c.Context()).Model(&model.Course{}).
		Where("course_id = ?", id).
		Updates(patch)
	if res.Error != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Update course failed")
	}
	if res.RowsAffected == 0 {
		return helper.Error(c, fiber.StatusNotFound, "Course not found")
	}

	var m model.Course
	if err := h.DB.WithContext(c.Context()).First(&m, "course_id = ?", id).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Reload course failed")
	}
	return helper.Success(c, "Course updated", m)
}

// DELETE /api/a/courses/:id (soft delete)
func (h *CourseController) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid id")
	}
	res := h.DB.WithContext(c.Context()).Delete(&model.Course{}, "course_id = ?", id)
	if res.Error != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Delete course failed")
	}
	if res.RowsAffected == 0 {
		return helper.Error(c, fiber.StatusNotFound, "Course not found")
	}
	return helper.Success(c, "Course deleted", nil)
}

// POST /api/a/courses/:id/image (multipart form, field "image")
func (h *CourseController) UploadImage(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid id")
	}
	fh, err := c.FormFile("image")
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Missing image file")
	}

	url, err := ossHelper.UploadImageToOSSScoped("courses", fh)
	if err != nil {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return helper.Error(c, fe.Code, fe.Message)
		}
		return helper.Error(c, fiber.StatusBadGateway, "Image upload failed")
	}

	if err := h.DB.WithContext(c.Context()).Model(&model.Course{}).
		Where("course_id = ?", id).
		Update("course_image_url", url).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Save image url failed")
	}
	return helper.Success(c, "Image uploaded", fiber.Map{"url": url})
}

// GET /api/a/courses (admin list, includes inactive)
func (h *CourseController) ListAll(c *fiber.Ctx) error {
	p := helper.ParseFiber(c, "created_at", "desc", helper.AdminOpts)

	q := h.DB.WithContext(c.Context()).Model(&model.Course{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to load courses")
	}

	var rows []model.Course
	if err := q.Order("course_created_at DESC").
		Limit(p.Limit()).Offset(p.Offset()).
		Find(&rows).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to load courses")
	}
	return helper.Success(c, "OK", fiber.Map{
		"items": rows,
		"meta":  helper.BuildMeta(total, p),
	})
}
