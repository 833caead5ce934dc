package report

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// fileUploadLimit bounds the base64 payload length, matching the
// retained source's (8 MiB / 3) * 4 base64-expansion budget.
const fileUploadLimit = (8 * 1024 * 1024 / 3) * 4

const uploadKeyAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const uploadKeyLength = 32

var allowedImageExtensions = map[string]bool{
	"jpeg": true,
	"jpg":  true,
	"png":  true,
	"bmp":  true,
}

// UploadImage decodes a data: URI ("data:image/png;base64,....") and
// writes it to the upload staging directory under a random key,
// returning that key (without directory or extension stripped — the
// caller needs the filename to finalize the report). Fails closed on
// any unrecognized media type.
func (s *Service) UploadImage(dataURI string) (string, error) {
	if len(dataURI) > fileUploadLimit {
		return "", errors.New("upload too large")
	}

	ext, encoded, err := splitDataURI(dataURI)
	if err != nil {
		return "", err
	}
	if !allowedImageExtensions[ext] {
		return "", errors.New("unsupported image type")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", errors.New("invalid base64 payload")
	}

	for attempt := 0; attempt < 10; attempt++ {
		name, err := randomKey(uploadKeyLength)
		if err != nil {
			return "", err
		}
		key := name + "." + ext

		f, err := os.OpenFile(filepath.Join(s.uploadDir, key), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		_, writeErr := f.Write(data)
		closeErr := f.Close()
		if writeErr != nil {
			os.Remove(filepath.Join(s.uploadDir, key))
			return "", writeErr
		}
		if closeErr != nil {
			return "", closeErr
		}
		return key, nil
	}
	return "", errors.New("could not allocate a unique upload name")
}

// finalizeImage moves a staged upload into the public images directory
// and removes the staging copy, returning the public-facing relative
// path to persist on the report row.
func (s *Service) finalizeImage(key string) (string, error) {
	src := filepath.Join(s.uploadDir, key)
	dst := filepath.Join(s.publicImagesDir, key)

	data, err := os.ReadFile(src)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", err
	}
	os.Remove(src)
	return filepath.Join("images", key), nil
}

// splitDataURI extracts the media-type suffix ("png", "jpeg", ...) and
// the base64 payload from a "data:image/<type>;base64,<data>" URI.
func splitDataURI(uri string) (ext string, encoded string, err error) {
	comma := strings.IndexByte(uri, ',')
	if comma < 0 {
		return "", "", errors.New("malformed data uri")
	}
	header := uri[:comma]
	encoded = uri[comma+1:]

	slash := strings.IndexByte(header, '/')
	if slash < 0 {
		return "", "", errors.New("malformed data uri header")
	}
	rest := header[slash+1:]
	semi := strings.IndexByte(rest, ';')
	if semi < 0 {
		return "", "", errors.New("malformed data uri header")
	}
	return strings.ToLower(rest[:semi]), encoded, nil
}

func randomKey(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, length)
	for i, b := range buf {
		out[i] = uploadKeyAlphabet[int(b)%len(uploadKeyAlphabet)]
	}
	return string(out), nil
}
