package model

// LectureNoteMeta describes an uploaded lecture note. The payload lives in
// the record store under the same ID.
type LectureNoteMeta struct {
	ID            string `json:"id" validate:"required"`
	CourseID      string `json:"courseId" validate:"required"`
	Name          string `json:"name" validate:"required,max=200"`
	FileName      string `json:"fileName" validate:"required"`
	UploadDateISO string `json:"uploadDateISO"`
	FileSize      int64  `json:"fileSize" validate:"min=0"`
}

// StoredNote is the binary payload of a lecture note.
type StoredNote struct {
	ID       string
	CourseID string
	Data     []byte
	MimeType string
}
