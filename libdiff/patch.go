package libdiff

import (
	"bytes"

	"github.com/signadot/docrep/go-docrep"
	"github.com/signadot/docrep/go-docrep/dump"

	jsonpatch "github.com/evanphx/json-patch"
)

// JSON returns the compact JSON form of doc.
func JSON(doc docrep.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := dump.JSON(&buf, doc, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MergePatch returns the JSON merge patch taking from to to. The patch is
// "{}" when the documents have the same content.
func MergePatch(from, to docrep.Document) ([]byte, error) {
	a, err := JSON(from)
	if err != nil {
		return nil, err
	}
	b, err := JSON(to)
	if err != nil {
		return nil, err
	}
	return jsonpatch.CreateMergePatch(a, b)
}

// ApplyMergePatch applies a merge patch to the JSON form of a document.
func ApplyMergePatch(docJSON, patch []byte) ([]byte, error) {
	return jsonpatch.MergePatch(docJSON, patch)
}
