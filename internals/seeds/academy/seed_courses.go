package academy

import (
	"encoding/json"
	"log"
	"os"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"kartacademy_backend/internals/features/academy/courses/dto"
	"kartacademy_backend/internals/features/academy/courses/model"
)

type courseSeed struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Level       string          `json:"level"`
	Price       float64         `json:"price"`
	Currency    string          `json:"currency"`
	Capacity    int             `json:"capacity"`
	Schedule    json.RawMessage `json:"schedule"`
}

// SeedCoursesFromJSON loads the demo course catalog. Existing slugs are left
// untouched so the seed can run on every boot.
func SeedCoursesFromJSON(db *gorm.DB, filePath string) {
	file, err := os.ReadFile(filePath)
	if err != nil {
		log.Printf("[SEED] course file %s not found, skipping", filePath)
		return
	}

	var inputs []courseSeed
	if err := json.Unmarshal(file, &inputs); err != nil {
		log.Printf("[SEED ERROR] decode %s: %v", filePath, err)
		return
	}

	for _, in := range inputs {
		slug := dto.Slugify(in.Name)

		var existing model.Course
		if err := db.First(&existing, "course_slug = ?", slug).Error; err == nil {
			continue
		}

		currency := in.Currency
		if currency == "" {
			currency = "USD"
		}
		capacity := in.Capacity
		if capacity == 0 {
			capacity = 12
		}

		row := model.Course{
			CourseName:            in.Name,
			CourseSlug:            slug,
			CourseDescription:     in.Description,
			CourseLevel:           in.Level,
			CoursePriceAmount:     in.Price,
			CoursePriceCurrency:   currency,
			CourseCapacity:        capacity,
			CourseSessionSchedule: datatypes.JSON(in.Schedule),
			CourseIsActive:        true,
		}
		if err := db.Create(&row).Error; err != nil {
			log.Printf("[SEED ERROR] course %q: %v", in.Name, err)
			continue
		}
		log.Printf("[SEED] course %q created", in.Name)
	}
}
