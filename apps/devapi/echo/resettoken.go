package echoapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/aliqadomi777/front-end-lms/core/user"
)

var (
	resetSalt = []byte("lms.devapi.password_reset")
	tsEncoder = base32.StdEncoding.WithPadding(base32.NoPadding)

	errInvalidResetToken = errors.New("invalid token")
	errResetTokenExpired = errors.New("token expired")
)

// resetTokens makes and checks password reset tokens. A token is bound to the account's
// current password hash, so it stops verifying once the password changes.
type resetTokens struct {
	key     []byte
	timeout time.Duration
	now     func() time.Time // mockable
}

func newResetTokens(secret string, timeout time.Duration) *resetTokens {
	key := sha256.Sum256(append(append([]byte{}, resetSalt...), secret...))
	return &resetTokens{key: key[:], timeout: timeout, now: time.Now}
}

func (rt *resetTokens) make(usr user.User, pwdHash []byte) string {
	return rt.makeWithTimestamp(usr, pwdHash, rt.now().Unix())
}

func (rt *resetTokens) verify(usr user.User, pwdHash []byte, token string) error {
	parts := strings.SplitN(token, "-", 2)
	if len(parts) < 2 {
		return errInvalidResetToken
	}
	data, err := tsEncoder.DecodeString(parts[0])
	if err != nil {
		return errInvalidResetToken
	}
	ts, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return errInvalidResetToken
	}

	// check that token has not been tampered with
	if subtle.ConstantTimeCompare([]byte(rt.makeWithTimestamp(usr, pwdHash, ts)), []byte(token)) == 0 {
		return errInvalidResetToken
	}
	if rt.now().Sub(time.Unix(ts, 0)) > rt.timeout {
		return errResetTokenExpired
	}
	return nil
}

func (rt *resetTokens) makeWithTimestamp(usr user.User, pwdHash []byte, ts int64) string {
	tsStr := strconv.FormatInt(ts, 10)
	h := hmac.New(sha256.New, rt.key)
	h.Write([]byte(strconv.Itoa(usr.ID)))
	h.Write([]byte(usr.Email))
	h.Write(pwdHash)
	h.Write([]byte(tsStr))
	return tsEncoder.EncodeToString([]byte(tsStr)) + "-" + base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
