package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const flashCookie = "flash"

const DefaultFlashTTL = time.Minute

// Flash categories, used as CSS classes by the templates.
const (
	FlashError   = "error"
	FlashWarning = "warning"
	FlashInfo    = "info"
)

type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// FlashStore carries one-shot messages across a redirect.
type FlashStore interface {
	Add(c echo.Context, f Flash) error
	Pop(c echo.Context) ([]Flash, error)
}

func setFlashCookie(c echo.Context, value string, ttl time.Duration) {
	cookie := new(http.Cookie)
	cookie.Name = flashCookie
	cookie.Value = value
	cookie.Path = "/"
	cookie.HttpOnly = true
	cookie.SameSite = http.SameSiteLaxMode
	cookie.Secure = c.IsTLS()
	if value == "" {
		cookie.MaxAge = -1
	} else {
		cookie.MaxAge = int(ttl / time.Second)
	}
	c.SetCookie(cookie)
}

// CookieFlashStore keeps the messages in the cookie itself as an HS256 JWT.
type CookieFlashStore struct {
	Secret []byte
	TTL    time.Duration
}

type flashClaims struct {
	Flashes []Flash `json:"flashes"`
	jwt.RegisteredClaims
}

func (s *CookieFlashStore) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultFlashTTL
	}
	return s.TTL
}

func (s *CookieFlashStore) read(c echo.Context) []Flash {
	ck, err := c.Cookie(flashCookie)
	if err != nil || ck.Value == "" {
		return nil
	}
	var claims flashClaims
	parsed, err := jwt.ParseWithClaims(ck.Value, &claims, func(t *jwt.Token) (interface{}, error) { return s.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil
	}
	return claims.Flashes
}

func (s *CookieFlashStore) Add(c echo.Context, f Flash) error {
	flashes := append(s.read(c), f)
	claims := flashClaims{
		Flashes:          flashes,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.ttl()))},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return err
	}
	setFlashCookie(c, signed, s.ttl())
	return nil
}

// Pop returns pending messages and clears the cookie. Tampered or expired
// cookies yield no messages.
func (s *CookieFlashStore) Pop(c echo.Context) ([]Flash, error) {
	flashes := s.read(c)
	if _, err := c.Cookie(flashCookie); err == nil {
		setFlashCookie(c, "", 0)
	}
	return flashes, nil
}

// RedisFlashStore keeps the messages in a redis list; the cookie holds only its key.
type RedisFlashStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func (s *RedisFlashStore) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultFlashTTL
	}
	return s.TTL
}

func flashKey(id string) string { return fmt.Sprintf("flash:%s", id) }

func (s *RedisFlashStore) Add(c echo.Context, f Flash) error {
	id := ""
	if ck, err := c.Cookie(flashCookie); err == nil {
		if _, perr := uuid.Parse(ck.Value); perr == nil {
			id = ck.Value
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	key := flashKey(id)
	pipe := s.Client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, s.ttl())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store flash: %w", err)
	}
	setFlashCookie(c, id, s.ttl())
	return nil
}

func (s *RedisFlashStore) Pop(c echo.Context) ([]Flash, error) {
	ck, err := c.Cookie(flashCookie)
	if err != nil || ck.Value == "" {
		return nil, nil
	}
	setFlashCookie(c, "", 0)
	if _, err := uuid.Parse(ck.Value); err != nil {
		return nil, nil
	}
	return s.drain(c.Request().Context(), flashKey(ck.Value))
}

func (s *RedisFlashStore) drain(ctx context.Context, key string) ([]Flash, error) {
	pipe := s.Client.TxPipeline()
	items := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("load flashes: %w", err)
	}
	var out []Flash
	for _, raw := range items.Val() {
		var f Flash
		if err := json.Unmarshal([]byte(raw), &f); err == nil {
			out = append(out, f)
		}
	}
	return out, nil
}
