package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testSecret = []byte("super-secret")
	testNow    = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
)

func newTestAccessCodec() *AccessCodec {
	return NewAccessCodec(testSecret, 15*time.Minute, 60*time.Second)
}

func TestAccessCodec_IssueAndValidate(t *testing.T) {
	t.Parallel()

	c := newTestAccessCodec()
	tok, err := c.Issue(42, "dolto", testNow)
	require.NoError(t, err)

	claims, err := c.Validate(tok, testNow.Add(time.Minute), true)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "dolto", claims.UserName)
	assert.True(t, claims.ExpiresAt.Time.Equal(testNow.Add(15*time.Minute)))
}

func TestAccessCodec_BearerPrefix(t *testing.T) {
	t.Parallel()

	c := newTestAccessCodec()
	tok, err := c.Issue(7, "u7", testNow)
	require.NoError(t, err)

	claims, err := c.Validate(common.BearerPrefix+tok, testNow, true)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
}

func TestAccessCodec_ExpiryLeeway(t *testing.T) {
	t.Parallel()

	c := newTestAccessCodec()
	tok, err := c.Issue(1, "u1", testNow)
	require.NoError(t, err)

	exp := testNow.Add(15 * time.Minute)

	_, err = c.Validate(tok, exp.Add(59*time.Second), true)
	assert.NoError(t, err, "inside leeway")

	_, err = c.Validate(tok, exp.Add(61*time.Second), true)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestAccessCodec_IgnoreExpiry(t *testing.T) {
	t.Parallel()

	c := newTestAccessCodec()
	tok, err := c.Issue(3, "u3", testNow)
	require.NoError(t, err)

	claims, err := c.Validate(tok, testNow.Add(24*time.Hour), false)
	require.NoError(t, err)
	assert.Equal(t, int64(3), claims.UserID)
}

func TestAccessCodec_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewAccessCodec([]byte("right-secret"), time.Hour, 0).Issue(2, "u2", testNow)
	require.NoError(t, err)

	_, err = NewAccessCodec([]byte("wrong-secret"), time.Hour, 0).Validate(tok, testNow, true)
	assert.ErrorIs(t, err, common.ErrInvalidSignature)

	// a bad signature is still rejected when expiry is skipped
	_, err = NewAccessCodec([]byte("wrong-secret"), time.Hour, 0).Validate(tok, testNow, false)
	assert.ErrorIs(t, err, common.ErrInvalidSignature)
}

func TestAccessCodec_Tampered(t *testing.T) {
	t.Parallel()

	c := newTestAccessCodec()
	tok, err := c.Issue(5, "u5", testNow)
	require.NoError(t, err)

	other, err := c.Issue(6, "u6", testNow)
	require.NoError(t, err)

	// payload of one token with the signature of another
	a := strings.Split(tok, ".")
	b := strings.Split(other, ".")
	forged := a[0] + "." + b[1] + "." + a[2]

	_, err = c.Validate(forged, testNow, true)
	assert.ErrorIs(t, err, common.ErrInvalidSignature)
}

func TestAccessCodec_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	claims := models.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour))},
		UserID:           9,
		UserName:         "u9",
	}

	hs384, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString(testSecret)
	require.NoError(t, err)
	_, err = newTestAccessCodec().Validate(hs384, testNow, true)
	assert.ErrorIs(t, err, common.ErrInvalidSignature)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = newTestAccessCodec().Validate(none, testNow, true)
	assert.ErrorIs(t, err, common.ErrInvalidSignature)
}

func TestAccessCodec_Malformed(t *testing.T) {
	t.Parallel()

	c := newTestAccessCodec()
	for _, tok := range []string{"", "not.a.jwt", "garbage", common.BearerPrefix} {
		_, err := c.Validate(tok, testNow, true)
		assert.ErrorIs(t, err, common.ErrMalformedToken, "token %q", tok)
	}
}

func TestAccessCodec_MissingExpiry(t *testing.T) {
	t.Parallel()

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, models.AccessClaims{UserID: 1, UserName: "u"}).SignedString(testSecret)
	require.NoError(t, err)

	_, err = newTestAccessCodec().Validate(tok, testNow, true)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = newTestAccessCodec().Validate(tok, testNow, false)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestAccessCodec_RejectsRefreshToken(t *testing.T) {
	t.Parallel()

	refresh, err := NewRefreshCodec(testSecret).Issue(1, "u")
	require.NoError(t, err)

	for _, enforce := range []bool{true, false} {
		_, err = newTestAccessCodec().Validate(refresh, testNow, enforce)
		assert.ErrorIs(t, err, common.ErrInvalidToken, "enforceExpiry=%v", enforce)
	}
}

func TestRefreshCodec_IssueAndParse(t *testing.T) {
	t.Parallel()

	c := NewRefreshCodec(testSecret)
	tok, err := c.Issue(42, "dolto")
	require.NoError(t, err)

	claims, err := c.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "dolto", claims.UserName)
	assert.NotEmpty(t, claims.ID)
	assert.Nil(t, claims.ExpiresAt)
}

func TestRefreshCodec_IssueIsUnique(t *testing.T) {
	t.Parallel()

	c := NewRefreshCodec(testSecret)
	a, err := c.Issue(1, "u")
	require.NoError(t, err)
	b, err := c.Issue(1, "u")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestRefreshCodec_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewRefreshCodec([]byte("a")).Issue(1, "u")
	require.NoError(t, err)

	_, err = NewRefreshCodec([]byte("b")).Parse(tok)
	assert.ErrorIs(t, err, common.ErrInvalidSignature)

	_, err = NewRefreshCodec([]byte("b")).Parse("nope")
	assert.ErrorIs(t, err, common.ErrMalformedToken)
}
