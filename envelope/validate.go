package envelope

import (
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
)

const (
	signatureMarker = "-----BEGIN PGP SIGNATURE-----"
	publicKeyMarker = "-----BEGIN PGP PUBLIC KEY BLOCK-----"
)

// futureTolerance bounds how far into the future a Post's date may be,
// to absorb clock skew between the signer and this node.
const futureTolerance = 5 * time.Minute

// Validate enforces envelope structure, verifies the OpenPGP signature,
// checks fingerprint/id/payload-id equality, and validates the embedded
// Post's fields. It performs no I/O and touches no package state.
func Validate(env Envelope) (Post, *ValidationError) {
	if verr := validateStructure(env); verr != nil {
		return Post{}, verr
	}

	keyring, err := openpgp.ReadArmoredKeyRing(strings.NewReader(env.PublicKey))
	if err != nil || len(keyring) == 0 {
		return Post{}, errSignature("could not parse public key: " + errString(err))
	}
	entity := keyring[0]
	if entity.PrimaryKey == nil {
		return Post{}, errSignature("public key has no primary key material")
	}
	fingerprint := hex.EncodeToString(entity.PrimaryKey.Fingerprint)
	if !strings.EqualFold(fingerprint, env.ID) {
		return Post{}, errIdMismatch("key fingerprint does not match envelope id")
	}

	if _, err := openpgp.CheckArmoredDetachedSignature(keyring, strings.NewReader(env.Data), strings.NewReader(env.Signature), nil); err != nil {
		return Post{}, errSignature("signature verification failed: " + err.Error())
	}

	var post Post
	if err := json.Unmarshal([]byte(env.Data), &post); err != nil {
		return Post{}, errPostData("data is not a valid post: " + err.Error())
	}
	if post.ID != env.ID {
		return Post{}, errPostData("post id does not match envelope id")
	}

	if verr := validatePost(post); verr != nil {
		return Post{}, verr
	}
	return post, nil
}

func validateStructure(env Envelope) *ValidationError {
	if env.Signature == "" {
		return errStructure("signature is empty")
	}
	if env.PublicKey == "" {
		return errStructure("public_key is empty")
	}
	if env.ID == "" {
		return errStructure("id is empty")
	}
	if env.Data == "" {
		return errStructure("data is empty")
	}
	if !strings.Contains(env.Signature, signatureMarker) {
		return errStructure("signature is not an ASCII-armored PGP signature")
	}
	if !strings.Contains(env.PublicKey, publicKeyMarker) {
		return errStructure("public_key is not an ASCII-armored PGP public key")
	}
	for _, c := range env.ID {
		if !isHexDigit(c) {
			return errStructure("id is not a hex fingerprint")
		}
	}
	return nil
}

func validatePost(post Post) *ValidationError {
	if strings.TrimSpace(post.Text) == "" {
		return errPostData("text cannot be empty")
	}
	if post.Latitude < -90.0 || post.Latitude > 90.0 {
		return errPostData("latitude out of range")
	}
	if post.Longitude < -180.0 || post.Longitude > 180.0 {
		return errPostData("longitude out of range")
	}
	if post.Date.After(time.Now().UTC().Add(futureTolerance)) {
		return errPostData("date is too far in the future")
	}
	return nil
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func errString(err error) string {
	if err == nil {
		return "empty keyring"
	}
	return err.Error()
}
