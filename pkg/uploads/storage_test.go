package uploads

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorageRoundTrip(t *testing.T) {
	fs, err := NewFileStorage(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	a, err := fs.Save("Payout.XLSX", []byte("one"))
	require.NoError(t, err)
	b, err := fs.Save("Payout.XLSX", []byte("two"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Equal(t, ".xlsx", filepath.Ext(a))

	data, err := fs.ReadFile(a)
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))

	require.NoError(t, fs.Remove(a))
	_, err = fs.ReadFile(a)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NoError(t, fs.Remove(a), "removing a missing file is not an error")
}

func TestFileStorageRejectsEscapes(t *testing.T) {
	fs, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	for _, rel := range []string{"", "../secret", "a/../../secret", "/etc/passwd"} {
		_, err := fs.ReadFile(rel)
		assert.ErrorIs(t, err, ErrOutsideRoot, "rel %q", rel)
	}
}

func TestReadMultipart(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "../../etc/payout.xlsx")
	require.NoError(t, err)
	_, err = fw.Write([]byte("data"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	name, data, err := ReadMultipart(req)
	require.NoError(t, err)
	assert.Equal(t, "payout.xlsx", name)
	assert.Equal(t, "data", string(data))

	_, _, err = ReadMultipart(httptest.NewRequest(http.MethodPost, "/", nil))
	assert.ErrorIs(t, err, ErrNoFile)
}
