package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader carries the gateway's HMAC signature:
//
//	X-Gateway-Signature: t=1724800000,v1=<hex hmac>
//
// The signed payload is "<timestamp>.<raw body>" so a captured signature
// cannot be replayed onto a different body or outside the tolerance window.
const SignatureHeader = "X-Gateway-Signature"

// DefaultTolerance is the maximum accepted clock skew between the signature
// timestamp and receipt.
const DefaultTolerance = 5 * time.Minute

var (
	ErrMissingSignature = errors.New("missing webhook signature")
	ErrBadSignature     = errors.New("webhook signature mismatch")
	ErrStaleTimestamp   = errors.New("webhook timestamp outside tolerance")
)

// Verify checks the signature header against the raw request body. It fails
// closed: any malformed header is ErrMissingSignature.
func Verify(secret, header string, body []byte, receivedAt time.Time, tolerance time.Duration) error {
	if secret == "" {
		return errors.New("webhook secret not configured")
	}
	timestamp, signatures := parseHeader(header)
	if timestamp == "" || len(signatures) == 0 {
		return ErrMissingSignature
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil || ts <= 0 {
		return ErrMissingSignature
	}

	expected := computeHMAC(secret, timestamp, body)
	valid := false
	for _, sigHex := range signatures {
		decoded, err := hex.DecodeString(sigHex)
		if err != nil {
			continue
		}
		if hmac.Equal(expected, decoded) {
			valid = true
			break
		}
	}
	if !valid {
		return ErrBadSignature
	}

	if tolerance > 0 {
		skew := receivedAt.UTC().Sub(time.Unix(ts, 0).UTC())
		if skew < 0 {
			skew = -skew
		}
		if skew > tolerance {
			return ErrStaleTimestamp
		}
	}
	return nil
}

// VerifyAny checks the signature against each secret in turn, so a secret
// can be rotated without a window of rejected deliveries: the retiring
// secret stays in the list until the gateway switches over.
func VerifyAny(secrets []string, header string, body []byte, receivedAt time.Time, tolerance time.Duration) error {
	var last error
	for _, secret := range secrets {
		secret = strings.TrimSpace(secret)
		if secret == "" {
			continue
		}
		last = Verify(secret, header, body, receivedAt, tolerance)
		// Only a signature mismatch is worth trying the next secret for;
		// malformed or stale headers fail the same way under every secret.
		if !errors.Is(last, ErrBadSignature) {
			return last
		}
	}
	if last == nil {
		return errors.New("webhook secret not configured")
	}
	return last
}

// Sign produces a header value for the given body at the given time. Used by
// tests and by outbound callbacks to partner systems.
func Sign(secret string, body []byte, at time.Time) string {
	timestamp := strconv.FormatInt(at.UTC().Unix(), 10)
	sig := computeHMAC(secret, timestamp, body)
	return fmt.Sprintf("t=%s,v1=%s", timestamp, hex.EncodeToString(sig))
}

func computeHMAC(secret, timestamp string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte{'.'})
	mac.Write(body)
	return mac.Sum(nil)
}

func parseHeader(header string) (string, []string) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", nil
	}
	var timestamp string
	signatures := make([]string, 0, 2)
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.TrimSpace(kv[0]) {
		case "t":
			if timestamp == "" {
				timestamp = strings.TrimSpace(kv[1])
			}
		case "v1":
			if v := strings.TrimSpace(kv[1]); v != "" {
				signatures = append(signatures, v)
			}
		}
	}
	return timestamp, signatures
}
