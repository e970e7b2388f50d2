package text

import (
	"bytes"
	"io"
	"io/ioutil"
	"strings"

	"github.com/gogs/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"

	"github.com/kiteco/perfrnn/golib/errors"
)

// AutoDetect can be passed as a charset name to detect the encoding from the content.
const AutoDetect = "auto"

// Encoding resolves a charset name to an encoding. Names are matched against the IANA
// registry case-insensitively, with "-" and "_" treated alike so that "shift-jis" and
// "Shift_JIS" name the same table.
func Encoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.Replace(name, "-", "_", -1)) {
	case "", "utf8", "utf_8":
		return unicode.UTF8, nil
	case "shift_jis", "sjis", "cp932", "ms932":
		return japanese.ShiftJIS, nil
	}

	candidates := []string{name, strings.Replace(name, "_", "-", -1), strings.Replace(name, "-", "_", -1)}
	for _, c := range candidates {
		enc, err := ianaindex.IANA.Encoding(c)
		if err == nil && enc != nil {
			return enc, nil
		}
	}
	return nil, errors.Errorf("unsupported charset %q", name)
}

// Detect guesses the charset of buf.
func Detect(buf []byte) (string, error) {
	res, err := chardet.NewTextDetector().DetectBest(buf)
	if err != nil {
		return "", errors.Errorf("error detecting encoding: %v", err)
	}
	return res.Charset, nil
}

// NewReader returns a reader that decodes r from the named charset to UTF-8. With AutoDetect
// the whole input is read first so that it can be sniffed.
func NewReader(r io.Reader, charset string) (io.Reader, error) {
	if strings.EqualFold(charset, AutoDetect) {
		buf, err := ioutil.ReadAll(r)
		if err != nil {
			return nil, err
		}
		charset, err = Detect(buf)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(buf)
	}

	enc, err := Encoding(charset)
	if err != nil {
		return nil, err
	}
	return enc.NewDecoder().Reader(r), nil
}
