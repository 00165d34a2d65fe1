package submit

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// Part is one multipart section. FileName and ContentType are optional.
type Part struct {
	Name        string
	FileName    string
	ContentType string
	Body        []byte
}

// Form is an ordered multipart/form-data body.
type Form struct {
	Parts []Part
}

func (f *Form) AddField(name, value string) {
	f.Parts = append(f.Parts, Part{Name: name, Body: []byte(value)})
}

func (f *Form) AddFile(name, fileName, contentType string, body []byte) {
	f.Parts = append(f.Parts, Part{Name: name, FileName: fileName, ContentType: contentType, Body: body})
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Encode renders the form. An empty boundary picks a random one. It returns
// the body and the matching Content-Type header value.
func (f Form) Encode(boundary string) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if boundary != "" {
		if err := mw.SetBoundary(boundary); err != nil {
			return nil, "", err
		}
	}
	for _, p := range f.Parts {
		if p.Name == "" {
			return nil, "", fmt.Errorf("multipart: part without a name")
		}
		h := textproto.MIMEHeader{}
		disp := fmt.Sprintf(`form-data; name="%s"`, quoteEscaper.Replace(p.Name))
		if p.FileName != "" {
			disp += fmt.Sprintf(`; filename="%s"`, quoteEscaper.Replace(p.FileName))
		}
		h.Set("Content-Disposition", disp)
		if p.ContentType != "" {
			h.Set("Content-Type", p.ContentType)
		}
		w, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := w.Write(p.Body); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}
