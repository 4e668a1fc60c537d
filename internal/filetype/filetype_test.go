package filetype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	jpegHeader = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
)

func TestInspector_Inspect(t *testing.T) {
	in := NewInspector([]string{"pdf", "PNG", ".jpg", "jpeg"})

	tests := []struct {
		name     string
		filename string
		content  []byte
		wantErr  error
		wantType string
	}{
		{name: "png", filename: "scan.PNG", content: pngHeader, wantType: "image/png"},
		{name: "jpg", filename: "photo.jpg", content: jpegHeader, wantType: "image/jpeg"},
		{name: "jpeg", filename: "photo.jpeg", content: jpegHeader, wantType: "image/jpeg"},
		{name: "empty", filename: "scan.png", content: nil, wantErr: ErrEmpty},
		{name: "not allowed", filename: "notes.txt", content: []byte("hello"), wantErr: ErrUnsupportedType},
		{name: "known but not allowed", filename: "scan.tiff", content: []byte("II*\x00"), wantErr: ErrUnsupportedType},
		{name: "no extension", filename: "README", content: []byte("hello"), wantErr: ErrUnsupportedType},
		{name: "extension lies", filename: "scan.png", content: jpegHeader, wantErr: ErrUnsupportedType},
		{name: "text posing as pdf", filename: "doc.pdf", content: []byte("just text"), wantErr: ErrUnsupportedType},
		{name: "broken pdf", filename: "doc.pdf", content: []byte("%PDF-1.4\n%garbage without objects\n"), wantErr: ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := in.Inspect(tt.filename, tt.content)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, info.ContentType)
			assert.Equal(t, 1, info.PageCount)
			assert.False(t, info.IsPDF())
		})
	}
}

func TestExt(t *testing.T) {
	assert.Equal(t, "pdf", Ext("Report.Final.PDF"))
	assert.Equal(t, "", Ext("noext"))
	assert.Equal(t, "jpeg", Ext("dir/photo.jpeg"))
}
