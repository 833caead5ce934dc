// Package captcha issues and verifies short-lived challenge answers
// keyed by a caller-assigned channel, each backed by a private cookie.
package captcha

import (
	"crypto/rand"
	"net/http"
	"sync"
	"time"
)

const (
	cookiePrefix    = "captcha_"
	maxMapSize      = 512
	validDuration   = 5 * time.Minute
	idAlphabet      = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	idLength        = 32
)

// Renderer draws a human-readable challenge image for answer.
type Renderer interface {
	Render(answer string) ([]byte, error)
}

type answerEntry struct {
	answer    string
	createdAt time.Time
}

// fresh reports whether the entry is still within its valid window.
func (e answerEntry) fresh(now time.Time) bool {
	return now.Sub(e.createdAt) <= validDuration
}

// Bridge issues and verifies captcha challenges. Channels are a small
// fixed namespace; unrecognized channel numbers collapse to 0.
type Bridge struct {
	mu       sync.Mutex
	answers  map[string]answerEntry
	renderer Renderer
}

func New(renderer Renderer) *Bridge {
	return &Bridge{
		answers:  make(map[string]answerEntry),
		renderer: renderer,
	}
}

// Issue generates a new challenge for channel, writes its id to a
// private cookie named captcha_<channel> on w, and returns the
// rendered PNG bytes.
func (b *Bridge) Issue(w http.ResponseWriter, channel int) ([]byte, error) {
	answer, err := randomAnswer(6)
	if err != nil {
		return nil, err
	}

	img, err := b.renderer.Render(answer)
	if err != nil {
		return nil, err
	}

	id, err := b.store(answer)
	if err != nil {
		return nil, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName(channel),
		Value:    id,
		HttpOnly: true,
		Path:     "/",
	})

	return img, nil
}

// Verify reads the channel cookie from r, removes both the server-side
// entry and the cookie regardless of outcome, and reports whether
// userAnswer matched. A missing cookie is treated as a failed
// verification.
func (b *Bridge) Verify(w http.ResponseWriter, r *http.Request, channel int, userAnswer string) bool {
	name := cookieName(channel)
	cookie, err := r.Cookie(name)

	http.SetCookie(w, &http.Cookie{
		Name:   name,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if err != nil {
		return false
	}

	b.mu.Lock()
	entry, ok := b.answers[cookie.Value]
	delete(b.answers, cookie.Value)
	b.mu.Unlock()

	if !ok {
		return false
	}
	return entry.answer == userAnswer
}

func (b *Bridge) store(answer string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var id string
	for {
		candidate, err := randomID()
		if err != nil {
			return "", err
		}
		if _, exists := b.answers[candidate]; !exists {
			id = candidate
			break
		}
	}

	b.answers[id] = answerEntry{answer: answer, createdAt: time.Now()}

	if len(b.answers) > maxMapSize {
		now := time.Now()
		for key, entry := range b.answers {
			if !entry.fresh(now) {
				delete(b.answers, key)
			}
		}
	}

	return id, nil
}

func cookieName(channel int) string {
	if channel < 0 || channel > 9 {
		channel = 0
	}
	return cookiePrefix + itoa(channel)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func randomID() (string, error) {
	return randomString(idLength, idAlphabet)
}

func randomAnswer(length int) (string, error) {
	return randomString(length, "0123456789")
}

func randomString(length int, alphabet string) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, length)
	for i, b := range buf {
		out[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(out), nil
}
