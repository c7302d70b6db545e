package service

import "fmt"

const (
	msgRequired    = "This field is required."
	msgBlank       = "This field may not be blank."
	msgInvalidFile = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	msgNoFile      = "No file was submitted."
)

func msgMaxLength(n int) string {
	return fmt.Sprintf("Ensure this field has no more than %d characters.", n)
}

func msgMinLength(n int) string {
	return fmt.Sprintf("Ensure this field has at least %d characters.", n)
}

func msgInvalidPK(id int64) string {
	return fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id)
}
