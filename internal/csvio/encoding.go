package csvio

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Supported encodings.
const (
	EncodingUTF8        = "utf-8"
	EncodingUTF16       = "utf-16"
	EncodingWindows1252 = "windows-1252"
	EncodingLatin1      = "iso-8859-1"
)

// decoder returns the transformer turning raw bytes of the named encoding into
// UTF-8. UTF-8 input is validated (not repaired) and a leading BOM is dropped.
func decoder(name string) (transform.Transformer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EncodingUTF8, "utf8":
		return transform.Chain(encoding.UTF8Validator, unicode.UTF8BOM.NewDecoder()), nil
	case EncodingUTF16, "utf16":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder(), nil
	case EncodingWindows1252, "cp1252":
		return charmap.Windows1252.NewDecoder(), nil
	case EncodingLatin1, "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder(), nil
	}
	return nil, fmt.Errorf("unsupported encoding %q", name)
}

// ValidEncoding reports whether name is accepted by Parse.
func ValidEncoding(name string) bool {
	_, err := decoder(name)
	return err == nil
}
