package rest

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
)

// Form builds a multipart/form-data body, the format the backend expects
// for event creation and account updates that carry an image.
type Form struct {
	fields [][2]string
	files  []filePart
}

type filePart struct {
	field    string
	filename string
	reader   io.Reader
}

// NewForm creates an empty multipart form.
func NewForm() *Form {
	return &Form{}
}

// Set appends a string field. Repeated names are sent in order.
func (f *Form) Set(name, value string) *Form {
	f.fields = append(f.fields, [2]string{name, value})
	return f
}

// AttachFile appends a file part read from r.
func (f *Form) AttachFile(name, filename string, r io.Reader) *Form {
	f.files = append(f.files, filePart{field: name, filename: filename, reader: r})
	return f
}

func (f *Form) encode() (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for _, kv := range f.fields {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", fmt.Errorf("write form field %q: %w", kv[0], err)
		}
	}
	for _, fp := range f.files {
		part, err := w.CreateFormFile(fp.field, fp.filename)
		if err != nil {
			return nil, "", fmt.Errorf("create form file %q: %w", fp.field, err)
		}
		if _, err := io.Copy(part, fp.reader); err != nil {
			return nil, "", fmt.Errorf("copy form file %q: %w", fp.field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}
