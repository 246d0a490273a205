package fetcher

import (
	"bufio"
	"bytes"
	"io"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// DecodeReader sniffs the byte-order mark of an uploaded file and returns a
// UTF-8 reader. Salesforce report exports are UTF-8, but "Save As CSV" from
// Excel produces UTF-16 or a legacy codepage often enough to matter.
func DecodeReader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	bom, err := br.Peek(3)
	if err != nil && err != io.EOF {
		return nil, eris.Wrap(err, "decode: peek")
	}

	switch {
	case len(bom) >= 3 && bytes.Equal(bom[:3], []byte{0xEF, 0xBB, 0xBF}):
		if _, err := br.Discard(3); err != nil {
			return nil, eris.Wrap(err, "decode: discard bom")
		}
		return br, nil
	case len(bom) >= 2 && bom[0] == 0xFF && bom[1] == 0xFE:
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		return dec.Reader(br), nil
	case len(bom) >= 2 && bom[0] == 0xFE && bom[1] == 0xFF:
		dec := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
		return dec.Reader(br), nil
	default:
		return br, nil
	}
}

// DecodeCharset wraps the reader with a decoder for an explicitly named
// charset (an IANA/WHATWG label like "windows-1252").
func DecodeCharset(r io.Reader, label string) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, eris.Wrapf(err, "decode: unsupported charset %q", label)
	}
	return enc.NewDecoder().Reader(r), nil
}
