package apiclient

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"mime/multipart"
	"net/textproto"

	"github.com/google/uuid"
)

// JPEGQuality is the fixed encode quality for uploaded photos (0.7 of max).
const JPEGQuality = 70

// ImageFieldName is the form field the server reads uploaded photos from.
const ImageFieldName = "images"

// Field is one text part of a multipart body.
type Field struct {
	Name  string
	Value string
}

// FilePart is the binary part appended after the text fields.
type FilePart struct {
	Filename    string
	ContentType string
	Data        []byte
}

// JPEGPart encodes img at JPEGQuality into the image part of an upload.
func JPEGPart(img image.Image) (*FilePart, error) {
	data, err := EncodeJPEG(img)
	if err != nil {
		return nil, err
	}
	return &FilePart{Filename: "image.jpg", ContentType: "image/jpeg", Data: data}, nil
}

// EncodeJPEG encodes img at JPEGQuality.
func EncodeJPEG(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("apiclient: image is required")
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("apiclient: encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeMultipart builds a multipart/form-data body. Parts appear in the
// order of fields, followed by file when non-nil. It returns the body and the
// Content-Type header value.
func EncodeMultipart(boundary string, fields []Field, file *FilePart) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.SetBoundary(boundary); err != nil {
		return nil, "", fmt.Errorf("apiclient: boundary: %w", err)
	}
	for _, f := range fields {
		part, err := w.CreateFormField(f.Name)
		if err != nil {
			return nil, "", fmt.Errorf("apiclient: field %s: %w", f.Name, err)
		}
		if _, err := part.Write([]byte(f.Value)); err != nil {
			return nil, "", fmt.Errorf("apiclient: field %s: %w", f.Name, err)
		}
	}
	if file != nil {
		filename := file.Filename
		if filename == "" {
			filename = "image.jpg"
		}
		contentType := file.ContentType
		if contentType == "" {
			contentType = "image/jpeg"
		}
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, ImageFieldName, filename))
		header.Set("Content-Type", contentType)
		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("apiclient: file part: %w", err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, "", fmt.Errorf("apiclient: file part: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("apiclient: close multipart: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func randomBoundary() string {
	return "Boundary-" + uuid.NewString()
}
