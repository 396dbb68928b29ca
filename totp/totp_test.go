// SPDX-License-Identifier: ice License 1.0

package totp

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"testing"
	stdlibtime "time"

	"github.com/goccy/go-json"
	"github.com/pquerna/otp"
	pquernatotp "github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xlzd/gotp"

	"github.com/ximeleavesystem-glitch/xime-gate-otp-engine/time"
)

const (
	testSecret = "JBSWY3DPEHPK3PXP" //nolint:gosec // Bogus.
	// Multiple of the 300s period, so [boundary-300, boundary) and [boundary, boundary+300) are consecutive windows.
	boundary = int64(1_721_895_000)
)

func gateParameters() *Parameters {
	params := DefaultParameters()

	return &params
}

func mustSecret(tb testing.TB, encoded string) Secret {
	tb.Helper()
	secret, err := ParseSecret(encoded)
	require.NoError(tb, err)

	return secret
}

func at(epochSeconds int64) *time.Time {
	return time.Unix(epochSeconds)
}

func mustGenerate(tb testing.TB, secret Secret, params *Parameters, now *time.Time) *GeneratedCode {
	tb.Helper()
	code, err := Generate(secret, params, now)
	require.NoError(tb, err)

	return code
}

func mustVerify(tb testing.TB, secret Secret, params *Parameters, code string, now *time.Time) *VerificationResult {
	tb.Helper()
	result, err := Verify(secret, params, code, now)
	require.NoError(tb, err)

	return result
}

func TestDeriveRFC6238Vectors(t *testing.T) {
	t.Parallel()
	keys := map[Algorithm]string{
		AlgorithmSHA1:   "12345678901234567890",
		AlgorithmSHA256: "12345678901234567890123456789012",
		AlgorithmSHA512: "1234567890123456789012345678901234567890123456789012345678901234",
	}
	vectors := []struct {
		expected map[Algorithm]string
		epoch    int64
	}{
		{epoch: 59, expected: map[Algorithm]string{AlgorithmSHA1: "94287082", AlgorithmSHA256: "46119246", AlgorithmSHA512: "90693936"}},
		{epoch: 1111111109, expected: map[Algorithm]string{AlgorithmSHA1: "07081804", AlgorithmSHA256: "68084774", AlgorithmSHA512: "25091201"}},
		{epoch: 1111111111, expected: map[Algorithm]string{AlgorithmSHA1: "14050471", AlgorithmSHA256: "67062674", AlgorithmSHA512: "99943326"}},
		{epoch: 1234567890, expected: map[Algorithm]string{AlgorithmSHA1: "89005924", AlgorithmSHA256: "91819424", AlgorithmSHA512: "93441116"}},
		{epoch: 2000000000, expected: map[Algorithm]string{AlgorithmSHA1: "69279037", AlgorithmSHA256: "90698825", AlgorithmSHA512: "38618901"}},
		{epoch: 20000000000, expected: map[Algorithm]string{AlgorithmSHA1: "65353130", AlgorithmSHA256: "77737706", AlgorithmSHA512: "47863826"}},
	}
	for alg, key := range keys {
		secret, err := NewSecret([]byte(key))
		require.NoError(t, err)
		params := &Parameters{Algorithm: alg, Digits: 8, Period: 30}
		for _, vector := range vectors {
			code, dErr := Derive(secret, params, at(vector.epoch))
			require.NoError(t, dErr)
			assert.Equal(t, vector.expected[alg], code, "%v at %v", alg, vector.epoch)
		}
	}
}

func TestDeriveAtRFC4226Vectors(t *testing.T) {
	t.Parallel()
	secret, err := NewSecret([]byte("12345678901234567890"))
	require.NoError(t, err)
	params := &Parameters{Algorithm: AlgorithmSHA1, Digits: 6, Period: 30}
	expected := []string{"755224", "287082", "359152", "969429", "338314", "254676", "287922", "162583", "399871", "520489"}
	for counter, code := range expected {
		actual, dErr := DeriveAt(secret, params, uint64(counter))
		require.NoError(t, dErr)
		assert.Equal(t, code, actual, "counter %v", counter)
	}
}

func TestDeriveMatchesIndependentImplementations(t *testing.T) {
	t.Parallel()
	secret := mustSecret(t, testSecret)
	params := gateParameters()
	for _, epoch := range []int64{0, 299, 300, 950, 1030, boundary - 1, boundary, boundary + 61, 4_102_444_800} {
		now := at(epoch)
		code, err := Derive(secret, params, now)
		require.NoError(t, err)
		require.Len(t, code, params.Digits)

		expected, err := pquernatotp.GenerateCodeCustom(testSecret, *now.Time, pquernatotp.ValidateOpts{
			Period:    uint(params.Period),
			Digits:    otp.DigitsSix,
			Algorithm: otp.AlgorithmSHA1,
		})
		require.NoError(t, err)
		assert.Equal(t, expected, code, "pquerna at %v", epoch)
		assert.True(t, gotp.NewTOTP(testSecret, params.Digits, int(params.Period), nil).VerifyTime(code, *now.Time), "gotp at %v", epoch)
	}
}

func TestDeriveIsDeterministicAndSecretSensitive(t *testing.T) {
	t.Parallel()
	params := gateParameters()
	now := at(boundary + 123)
	first, err := Derive(mustSecret(t, testSecret), params, now)
	require.NoError(t, err)
	second, err := Derive(mustSecret(t, testSecret), params, at(boundary+123))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := Derive(mustSecret(t, "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"), params, now)
	require.NoError(t, err)
	assert.NotEqual(t, first, other)

	withinWindow, err := Derive(mustSecret(t, testSecret), params, at(boundary+299))
	require.NoError(t, err)
	assert.Equal(t, first, withinWindow)
}

func TestDeriveFailures(t *testing.T) {
	t.Parallel()
	now := at(boundary)
	_, err := Derive(Secret{}, gateParameters(), now)
	require.ErrorIs(t, err, ErrInvalidSecret)

	for _, params := range []*Parameters{
		nil,
		{Algorithm: "MD5", Digits: 6, Period: 300},
		{Algorithm: AlgorithmSHA1, Digits: 0, Period: 300},
		{Algorithm: AlgorithmSHA1, Digits: -1, Period: 300},
		{Algorithm: AlgorithmSHA1, Digits: 11, Period: 300},
		{Algorithm: AlgorithmSHA1, Digits: 6, Period: 0},
		{Algorithm: AlgorithmSHA1, Digits: 6, Period: 300, GraceSeconds: 301},
	} {
		_, err = Derive(mustSecret(t, testSecret), params, now)
		require.ErrorIs(t, err, ErrInvalidParameters, "%#v", params)
		_, err = Generate(mustSecret(t, testSecret), params, now)
		require.ErrorIs(t, err, ErrInvalidParameters, "%#v", params)
		_, err = Verify(mustSecret(t, testSecret), params, "123456", now)
		require.ErrorIs(t, err, ErrInvalidParameters, "%#v", params)
		_, err = Verify(mustSecret(t, testSecret), params, "not a code", now)
		require.ErrorIs(t, err, ErrInvalidParameters, "%#v", params)
	}
}

func TestParseSecret(t *testing.T) {
	t.Parallel()
	for _, encoded := range []string{testSecret, strings.ToLower(testSecret), " " + testSecret + "\n", testSecret + "===="} {
		secret, err := ParseSecret(encoded)
		require.NoError(t, err, encoded)
		assert.Equal(t, testSecret, secret.Base32())
	}
	foo, err := ParseSecret("MZXW6===")
	require.NoError(t, err)
	assert.Equal(t, []byte("foo"), foo.Bytes())

	for _, encoded := range []string{"", "   ", "====", "A", "not base32!", "JBSWY3DPEHPK3PX1"} {
		_, err = ParseSecret(encoded)
		require.ErrorIs(t, err, ErrInvalidSecret, encoded)
	}
	_, err = NewSecret(nil)
	require.ErrorIs(t, err, ErrInvalidSecret)
}

func TestSecretIsNeverPrinted(t *testing.T) {
	t.Parallel()
	secret := mustSecret(t, testSecret)
	assert.Equal(t, redactedSecret, fmt.Sprint(secret))
	assert.Equal(t, redactedSecret, fmt.Sprintf("%#v", secret))
	bytes, err := json.Marshal(struct {
		Secret Secret `json:"secret"`
	}{Secret: secret})
	require.NoError(t, err)
	assert.JSONEq(t, `{"secret":"***"}`, string(bytes))

	leaked := secret.Bytes()
	leaked[0] ^= 0xff
	assert.Equal(t, testSecret, secret.Base32())
}

func TestWindowOf(t *testing.T) {
	t.Parallel()
	window := WindowOf(at(1230), 300)
	assert.Equal(t, int64(4), window.Index)
	assert.Equal(t, uint64(30), window.Elapsed)
	assert.Equal(t, uint64(270), window.Remaining)
	assert.Equal(t, int64(1200), window.Start().Unix())
	assert.Equal(t, int64(1500), window.End().Unix())

	window = WindowOf(time.UnixMilli(1_200_999), 300)
	assert.Equal(t, uint64(0), window.Elapsed)
	assert.Equal(t, uint64(300), window.Remaining)

	window = WindowOf(at(-1), 300)
	assert.Equal(t, int64(-1), window.Index)
	assert.Equal(t, uint64(299), window.Elapsed)
	assert.Equal(t, uint64(1), window.Remaining)

	assert.Equal(t, Window{}, WindowOf(at(1230), 0))
}

func TestGenerateRemainingSeconds(t *testing.T) {
	t.Parallel()
	secret := mustSecret(t, testSecret)
	params := gateParameters()
	previous := mustGenerate(t, secret, params, at(boundary-1))
	assert.Equal(t, uint64(1), previous.RemainingSeconds)
	for epoch := boundary; epoch < boundary+int64(params.Period); epoch++ {
		code := mustGenerate(t, secret, params, at(epoch))
		assert.Equal(t, params.Period, code.ValidForSeconds)
		assert.GreaterOrEqual(t, code.RemainingSeconds, uint64(1))
		assert.LessOrEqual(t, code.RemainingSeconds, params.Period)
		if epoch == boundary {
			assert.Equal(t, params.Period, code.RemainingSeconds)
		} else {
			assert.Less(t, code.RemainingSeconds, previous.RemainingSeconds)
		}
		assert.Equal(t, boundary+int64(params.Period), code.ExpiresAt.Unix())
		previous = code
	}
	assert.Equal(t, params.Period, mustGenerate(t, secret, params, at(boundary+int64(params.Period))).RemainingSeconds)
}

func TestVerifyRoundTrip(t *testing.T) {
	t.Parallel()
	secret := mustSecret(t, testSecret)
	for _, params := range []*Parameters{
		gateParameters(),
		{Algorithm: AlgorithmSHA256, Digits: 8, Period: 30, GraceSeconds: 5},
		{Algorithm: AlgorithmSHA512, Digits: 10, Period: 60},
	} {
		for _, epoch := range []int64{boundary, boundary + 1, boundary + 59, boundary + 60, boundary + 61, boundary + 299, 59} {
			now := at(epoch)
			code := mustGenerate(t, secret, params, now)
			require.Len(t, code.Code, params.Digits)
			assert.Equal(t, &VerificationResult{Valid: true, Mode: ModeCurrent}, mustVerify(t, secret, params, code.Code, now))
		}
	}
}

func TestVerifyGraceWindow(t *testing.T) {
	t.Parallel()
	secret := mustSecret(t, testSecret)
	params := gateParameters()
	oldCode := mustGenerate(t, secret, params, at(boundary-50)).Code

	accepted := &VerificationResult{Valid: true, Mode: ModePreviousGrace}
	rejected := &VerificationResult{Valid: false, Mode: ModeNone}
	assert.Equal(t, accepted, mustVerify(t, secret, params, oldCode, at(boundary)))
	assert.Equal(t, accepted, mustVerify(t, secret, params, oldCode, at(boundary+30)))
	assert.Equal(t, accepted, mustVerify(t, secret, params, oldCode, at(boundary+60)))
	assert.Equal(t, accepted, mustVerify(t, secret, params, oldCode, time.UnixMilli((boundary+60)*1000+999)))
	assert.Equal(t, rejected, mustVerify(t, secret, params, oldCode, at(boundary+61)))
	assert.Equal(t, rejected, mustVerify(t, secret, params, oldCode, at(boundary+70)))
	assert.Equal(t, rejected, mustVerify(t, secret, params, oldCode, at(boundary+299)))
	assert.Equal(t, rejected, mustVerify(t, secret, params, oldCode, at(boundary+300)))

	twoWindowsOld := mustGenerate(t, secret, params, at(boundary-350)).Code
	assert.Equal(t, rejected, mustVerify(t, secret, params, twoWindowsOld, at(boundary+10)))
}

func TestVerifyNeverAcceptsTheNextWindow(t *testing.T) {
	t.Parallel()
	secret := mustSecret(t, testSecret)
	params := gateParameters()
	nextCode := mustGenerate(t, secret, params, at(boundary+10)).Code
	for _, epoch := range []int64{boundary - 1, boundary - 30, boundary - 299} {
		assert.Equal(t, &VerificationResult{}, mustVerify(t, secret, params, nextCode, at(epoch)))
	}
}

func TestVerifyWithoutGrace(t *testing.T) {
	t.Parallel()
	secret := mustSecret(t, testSecret)
	params := &Parameters{Algorithm: AlgorithmSHA1, Digits: 6, Period: 300}
	oldCode := mustGenerate(t, secret, params, at(boundary-1)).Code
	assert.Equal(t, ModePreviousGrace, mustVerify(t, secret, params, oldCode, at(boundary)).Mode)
	assert.False(t, mustVerify(t, secret, params, oldCode, at(boundary+1)).Valid)
}

func TestVerifyMalformedCodes(t *testing.T) {
	t.Parallel()
	secret := mustSecret(t, testSecret)
	params := gateParameters()
	now := at(boundary + 5)
	current := mustGenerate(t, secret, params, now).Code
	for _, code := range []string{
		"",
		current[:5],
		current + "0",
		" " + current,
		current + " ",
		current + "\n",
		"12a456",
		"+12345",
		"-12345",
		"12.456",
		"１２３４５６",
		"\x00\x00\x00\x00\x00\x00",
	} {
		result, err := Verify(secret, params, code, now)
		require.NoError(t, err, "%q", code)
		assert.Equal(t, &VerificationResult{Mode: ModeNone}, result, "%q", code)
	}
}

func TestVerifyFailsOnMisconfigurationOnly(t *testing.T) {
	t.Parallel()
	result, err := Verify(Secret{}, gateParameters(), "123456", at(boundary))
	require.ErrorIs(t, err, ErrInvalidSecret)
	assert.Nil(t, result)

	result, err = Verify(Secret{}, gateParameters(), "x", at(boundary))
	require.ErrorIs(t, err, ErrInvalidSecret)
	assert.Nil(t, result)
}

func TestConcurrentUse(t *testing.T) {
	t.Parallel()
	secret := mustSecret(t, testSecret)
	params := gateParameters()
	expected := mustGenerate(t, secret, params, at(boundary+42)).Code
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				code, err := Derive(secret, params, at(boundary+42))
				assert.NoError(t, err)
				assert.Equal(t, expected, code)
			}
		}()
	}
	wg.Wait()
}

func TestTOTP(t *testing.T) {
	t.Parallel()
	engine := New("self")
	assert.Equal(t, DefaultParameters(), engine.Parameters())
	secret := mustSecret(t, testSecret)

	uri, err := url.Parse(engine.GenerateURI(secret, ""))
	require.NoError(t, err)
	assert.Equal(t, "otpauth", uri.Scheme)
	assert.Equal(t, "totp", uri.Host)
	assert.True(t, strings.HasSuffix(uri.Path, "GateOTP"), uri.Path)
	assert.Equal(t, testSecret, uri.Query().Get("secret"))
	assert.Equal(t, "XIME", uri.Query().Get("issuer"))
	assert.Equal(t, "300", uri.Query().Get("period"))
	uri, err = url.Parse(engine.GenerateURI(secret, "gate-1"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(uri.Path, "gate-1"), uri.Path)

	now := time.New(stdlibtime.Unix(boundary+200, 0))
	code, err := engine.GenerateCode(now, secret)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), code.RemainingSeconds)
	assert.Equal(t, uint64(300), code.ValidForSeconds)
	result, err := engine.VerifyCode(now, secret, code.Code)
	require.NoError(t, err)
	assert.Equal(t, &VerificationResult{Valid: true, Mode: ModeCurrent}, result)
	result, err = engine.VerifyCode(time.New(now.Add(160*stdlibtime.Second)), secret, code.Code)
	require.NoError(t, err)
	assert.Equal(t, ModePreviousGrace, result.Mode)
	result, err = engine.VerifyCode(time.New(now.Add(161*stdlibtime.Second)), secret, code.Code)
	require.NoError(t, err)
	assert.False(t, result.Valid)
}

func TestTOTPCustomParameters(t *testing.T) {
	t.Parallel()
	engine := New("bogus/totp")
	assert.Equal(t, Parameters{Algorithm: AlgorithmSHA256, Digits: 8, Period: 60, GraceSeconds: 10}, engine.Parameters())
	secret := mustSecret(t, testSecret)
	code, err := engine.GenerateCode(at(boundary+25), secret)
	require.NoError(t, err)
	require.Len(t, code.Code, 8)
	assert.Equal(t, uint64(35), code.RemainingSeconds)
	result, err := engine.VerifyCode(at(boundary+70), secret, code.Code)
	require.NoError(t, err)
	assert.Equal(t, ModePreviousGrace, result.Mode)
	result, err = engine.VerifyCode(at(boundary+71), secret, code.Code)
	require.NoError(t, err)
	assert.False(t, result.Valid)

	uri, err := url.Parse(engine.GenerateURI(secret, "gate-2"))
	require.NoError(t, err)
	assert.Equal(t, "8", uri.Query().Get("digits"))
	assert.Equal(t, "60", uri.Query().Get("period"))
	assert.Equal(t, "SHA256", uri.Query().Get("algorithm"))
}

func TestTOTPConfigDefaults(t *testing.T) {
	t.Parallel()
	for key, expected := range map[string]Parameters{
		"bogus/totp-period-only":  {Algorithm: AlgorithmSHA1, Digits: 6, Period: 120, GraceSeconds: 60},
		"bogus/totp-short-period": {Algorithm: AlgorithmSHA1, Digits: 6, Period: 30, GraceSeconds: 30},
		"bogus/totp-grace-only":   {Algorithm: AlgorithmSHA1, Digits: 6, Period: 300, GraceSeconds: 30},
		"bogus/totp-no-grace":     {Algorithm: AlgorithmSHA1, Digits: 6, Period: 120, GraceSeconds: 0},
		"bogus/not-configured":    DefaultParameters(),
	} {
		assert.Equal(t, expected, New(key).Parameters(), key)
	}
}

func TestVerifyAcrossTheEpoch(t *testing.T) {
	t.Parallel()
	secret := mustSecret(t, testSecret)
	params := gateParameters()
	preEpoch := mustGenerate(t, secret, params, at(-10)).Code
	assert.Equal(t, &VerificationResult{Valid: true, Mode: ModePreviousGrace}, mustVerify(t, secret, params, preEpoch, at(10)))
	assert.False(t, mustVerify(t, secret, params, preEpoch, at(61)).Valid)
}

func TestVerifyMalformedCodesDuringGrace(t *testing.T) {
	t.Parallel()
	secret := mustSecret(t, testSecret)
	params := gateParameters()
	previous := mustGenerate(t, secret, params, at(boundary-1)).Code
	for _, code := range []string{"", previous[:5], previous + "0", " " + previous, "12a456"} {
		assert.Equal(t, &VerificationResult{}, mustVerify(t, secret, params, code, at(boundary+1)), "%q", code)
	}
	assert.Equal(t, ModePreviousGrace, mustVerify(t, secret, params, previous, at(boundary+1)).Mode)
}

func TestGeneratedCodeJSON(t *testing.T) {
	t.Parallel()
	code := mustGenerate(t, mustSecret(t, testSecret), gateParameters(), at(boundary+200))
	bytes, err := json.MarshalContext(context.Background(), code)
	require.NoError(t, err)
	assert.JSONEq(t,
		fmt.Sprintf(`{"code":%q,"validForSeconds":300,"remainingSeconds":100,"expiresAt":"2024-07-25T08:15:00Z"}`, code.Code),
		string(bytes))

	bytes, err = json.Marshal(&VerificationResult{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"valid":false}`, string(bytes))
	bytes, err = json.Marshal(&VerificationResult{Valid: true, Mode: ModePreviousGrace})
	require.NoError(t, err)
	assert.JSONEq(t, `{"valid":true,"mode":"previous_grace"}`, string(bytes))
}
