package bot

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/url"
	"strconv"
	"time"
)

// Signature is the timestamp/sign pair appended to a signed webhook URL.
type Signature struct {
	// Timestamp is in milliseconds since the Unix epoch.
	Timestamp int64
	// Sign is the query-escaped base64 HMAC-SHA256 digest.
	Sign string
}

// Sign computes the signature for secret at timestamp (milliseconds since
// the epoch). The signed string is "<timestamp>\n<secret>", keyed with
// secret. The result does not depend on anything else, so an empty secret
// still yields a well-defined signature.
func Sign(secret string, timestamp int64) Signature {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10) + "\n" + secret))
	sum := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return Signature{Timestamp: timestamp, Sign: url.QueryEscape(sum)}
}

// Timestamp returns t in milliseconds since the Unix epoch.
func Timestamp(t time.Time) int64 {
	return t.UnixMilli()
}
