package envelope

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/stretchr/testify/require"
)

// testSigner generates a fresh PGP identity and returns its armored public
// key alongside a signer function for post payloads.
func testSigner(t *testing.T) (armoredPubKey string, id string, sign func(data []byte) string) {
	t.Helper()
	entity, err := openpgp.NewEntity("openherd test", "", "test@example.invalid", nil)
	require.NoError(t, err)

	var pub bytes.Buffer
	w, err := armor.Encode(&pub, openpgp.PublicKeyType, nil)
	require.NoError(t, err)
	require.NoError(t, entity.Serialize(w))
	require.NoError(t, w.Close())

	fingerprint := hex.EncodeToString(entity.PrimaryKey.Fingerprint)

	return pub.String(), fingerprint, func(data []byte) string {
		var sig bytes.Buffer
		err := openpgp.ArmoredDetachSign(&sig, entity, bytes.NewReader(data), nil)
		require.NoError(t, err)
		return sig.String()
	}
}

func buildEnvelope(t *testing.T, text string, date time.Time) (Envelope, string) {
	pub, id, sign := testSigner(t)
	post := Post{ID: id, Text: text, Latitude: 10, Longitude: 20, Date: date}
	data, err := json.Marshal(post)
	require.NoError(t, err)
	sig := sign(data)
	return Envelope{
		Signature: sig,
		PublicKey: pub,
		ID:        id,
		Data:      string(data),
	}, id
}

func TestValidateAcceptsWellFormedEnvelope(t *testing.T) {
	env, id := buildEnvelope(t, "hello from the field", time.Now().UTC())
	post, verr := Validate(env)
	require.Nil(t, verr)
	require.Equal(t, id, post.ID)
	require.Equal(t, "hello from the field", post.Text)
}

func TestValidateRejectsIdMismatch(t *testing.T) {
	env, _ := buildEnvelope(t, "hi", time.Now().UTC())
	env.ID = strings.Repeat("a", len(env.ID))
	_, verr := Validate(env)
	require.NotNil(t, verr)
	require.Equal(t, KindIdMismatch, verr.Kind)
}

func TestValidateRejectsMissingFields(t *testing.T) {
	_, verr := Validate(Envelope{})
	require.NotNil(t, verr)
	require.Equal(t, KindStructure, verr.Kind)
}

func TestValidateRejectsTamperedSignature(t *testing.T) {
	env, _ := buildEnvelope(t, "hi", time.Now().UTC())
	_, _, otherSign := testSigner(t)
	env.Signature = otherSign([]byte(env.Data))
	_, verr := Validate(env)
	require.NotNil(t, verr)
	require.Equal(t, KindSignature, verr.Kind)
}

func TestValidateBoundaryLatitude(t *testing.T) {
	pub, id, sign := testSigner(t)
	post := Post{ID: id, Text: "edge", Latitude: 90.0, Longitude: -180.0, Date: time.Now().UTC()}
	data, err := json.Marshal(post)
	require.NoError(t, err)
	env := Envelope{Signature: sign(data), PublicKey: pub, ID: id, Data: string(data)}
	_, verr := Validate(env)
	require.Nil(t, verr)
}

func TestValidateRejectsOutOfRangeLatitude(t *testing.T) {
	pub, id, sign := testSigner(t)
	post := Post{ID: id, Text: "edge", Latitude: 90.0001, Longitude: 0, Date: time.Now().UTC()}
	data, err := json.Marshal(post)
	require.NoError(t, err)
	env := Envelope{Signature: sign(data), PublicKey: pub, ID: id, Data: string(data)}
	_, verr := Validate(env)
	require.NotNil(t, verr)
	require.Equal(t, KindPostData, verr.Kind)
}

func TestValidateRejectsFutureDate(t *testing.T) {
	env, _ := buildEnvelope(t, "hi", time.Now().UTC().Add(10*time.Minute))
	_, verr := Validate(env)
	require.NotNil(t, verr)
	require.Equal(t, KindPostData, verr.Kind)
}

func TestValidateAcceptsDateWithinTolerance(t *testing.T) {
	env, _ := buildEnvelope(t, "hi", time.Now().UTC().Add(5*time.Minute))
	_, verr := Validate(env)
	require.Nil(t, verr)
}
