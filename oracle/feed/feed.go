// Package feed fetches observations from external JSON APIs.
package feed

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"
	"github.com/tidwall/gjson"
	"go.uber.org/ratelimit"

	"github.com/xydata/oracle/oracle/config"
	"github.com/xydata/oracle/oracle/log"
)

// Fetcher fetches feed responses, caching bodies per URL and rate limiting
// outgoing requests.
type Fetcher struct {
	client  *resty.Client
	cache   *cache.Cache
	limiter ratelimit.Limiter
}

func New(timeout time.Duration, perSecond int, ttl time.Duration) *Fetcher {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200*time.Millisecond).
		SetHeader("User-Agent", "xydata-oracled/1.0").
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})

	return &Fetcher{
		client:  client,
		cache:   cache.New(ttl, 2*ttl),
		limiter: ratelimit.New(perSecond),
	}
}

// Fetch returns feed's current value scaled to an integer.
func (f *Fetcher) Fetch(ctx context.Context, feed config.Feed) (uint64, error) {
	body, err := f.fetchRaw(ctx, feed.URL)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch %s: %w", feed.DataType, err)
	}

	raw, err := Extract(body, feed.Path)
	if err != nil {
		return 0, fmt.Errorf("failed to extract %s: %w", feed.DataType, err)
	}

	value, err := Scale(raw, feed.Decimals)
	if err != nil {
		return 0, fmt.Errorf("failed to scale %s: %w", feed.DataType, err)
	}

	log.Debugf("%s = %s -> %d", feed.DataType, raw, value)
	return value, nil
}

func (f *Fetcher) fetchRaw(ctx context.Context, url string) ([]byte, error) {
	if body, ok := f.cache.Get(url); ok {
		return body.([]byte), nil
	}

	f.limiter.Take()
	res, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, err
	}
	if res.StatusCode() != 200 {
		return nil, fmt.Errorf("unexpected HTTP status: %s (%s)", res.Status(), strings.TrimSpace(res.String()))
	}

	body := res.Body()
	f.cache.SetDefault(url, body)
	return body, nil
}

// Extract reads the value at path from a JSON document. When the document is
// an array and path misses, the path is retried against the first element.
func Extract(body []byte, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("response is not valid JSON")
	}

	doc := gjson.ParseBytes(body)
	result := doc.Get(path)
	if !result.Exists() && doc.IsArray() {
		result = doc.Get("0." + path)
	}
	if !result.Exists() {
		return "", fmt.Errorf("path %s not found", path)
	}

	switch result.Type {
	case gjson.Number:
		return result.Raw, nil
	case gjson.String:
		return strings.TrimSpace(result.Str), nil
	default:
		return "", fmt.Errorf("value at %s is %s, not a number", path, result.Type)
	}
}

// maxExponent bounds the exponent accepted in exponent notation.
const maxExponent = 100

// Scale converts a non-negative decimal string into an integer with decimals
// fractional digits kept, truncating the rest: Scale("150.257", 2) = 15025.
// Exponent notation such as "1.50257e2" is accepted.
func Scale(raw string, decimals uint32) (uint64, error) {
	plain, err := normalize(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid decimal %q: %w", raw, err)
	}
	value, err := sdk.NewDecFromStr(plain)
	if err != nil {
		return 0, fmt.Errorf("invalid decimal %q: %w", raw, err)
	}
	if value.IsNegative() {
		return 0, fmt.Errorf("negative value %s", raw)
	}

	scaled := value.MulInt(sdkmath.NewIntWithDecimal(1, int(decimals))).TruncateInt()
	if !scaled.IsUint64() {
		return 0, fmt.Errorf("value %s overflows uint64 at %d decimals", raw, decimals)
	}
	return scaled.Uint64(), nil
}

// normalize rewrites raw as a plain decimal with at most sdk.Precision
// fractional digits. Exponent notation is expanded by moving the decimal
// point, so no digit of the mantissa is lost.
func normalize(raw string) (string, error) {
	mantissa, exp := raw, 0
	if i := strings.IndexAny(raw, "eE"); i >= 0 {
		mantissa = raw[:i]
		var err error
		exp, err = strconv.Atoi(raw[i+1:])
		if err != nil {
			return "", fmt.Errorf("bad exponent: %w", err)
		}
		if exp > maxExponent || exp < -maxExponent {
			return "", fmt.Errorf("exponent %d out of range", exp)
		}
	}

	sign := ""
	if strings.HasPrefix(mantissa, "-") {
		sign, mantissa = "-", mantissa[1:]
	}
	intPart, fracPart, _ := strings.Cut(mantissa, ".")
	digits := intPart + fracPart
	if digits == "" || strings.Trim(digits, "0123456789") != "" {
		return "", fmt.Errorf("bad mantissa %q", mantissa)
	}

	point := len(intPart) + exp
	switch {
	case point <= 0:
		intPart, fracPart = "0", strings.Repeat("0", -point)+digits
	case point >= len(digits):
		intPart, fracPart = digits+strings.Repeat("0", point-len(digits)), ""
	default:
		intPart, fracPart = digits[:point], digits[point:]
	}
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > sdk.Precision {
		fracPart = fracPart[:sdk.Precision]
	}

	if fracPart == "" {
		return sign + intPart, nil
	}
	return sign + intPart + "." + fracPart, nil
}
