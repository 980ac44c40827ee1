package domain

import "time"

// LessonProgress marks a lesson completed by a user within a module.
type LessonProgress struct {
	ID          int64      `json:"id,string"`
	UserID      int64      `gorm:"index:idx_progress_user_lesson,unique" json:"user_id,string"`
	ModuleSlug  string     `gorm:"index;size:255" json:"module_slug"`
	LessonSlug  string     `gorm:"index:idx_progress_user_lesson,unique;size:255" json:"lesson_slug"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}
