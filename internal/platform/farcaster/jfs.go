package farcaster

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Envelope is a JSON Farcaster Signature: three base64url segments where the
// signature covers "header.payload".
type Envelope struct {
	Header    string `json:"header"`
	Payload   string `json:"payload"`
	Signature string `json:"signature"`
}

type Header struct {
	FID  int64  `json:"fid"`
	Type string `json:"type"`
	Key  string `json:"key"`
}

const (
	HeaderTypeAppKey  = "app_key"
	HeaderTypeCustody = "custody"
)

// Verified is an envelope whose signature checked out against the key in its
// own header. Whether that key belongs to FID is a separate question.
type Verified struct {
	Header  Header
	AppKey  ed25519.PublicKey
	Payload []byte
}

func decodeSegment(s string) ([]byte, error) {
	s = strings.TrimRight(strings.TrimSpace(s), "=")
	return base64.RawURLEncoding.DecodeString(s)
}

func encodeSegment(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func parseKey(raw string) (ed25519.PublicKey, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw)), "0x"))
	if err != nil {
		return nil, err
	}
	if len(b) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("key is %d bytes", len(b))
	}
	return ed25519.PublicKey(b), nil
}

// KeyHex renders a public key the way hubs report signer keys.
func KeyHex(k ed25519.PublicKey) string {
	return "0x" + hex.EncodeToString(k)
}

// VerifyEnvelope decodes env and checks its Ed25519 signature. All failures
// wrap ErrInvalidData.
func VerifyEnvelope(env Envelope) (*Verified, error) {
	if env.Header == "" || env.Payload == "" || env.Signature == "" {
		return nil, invalidData("missing header, payload or signature")
	}
	hb, err := decodeSegment(env.Header)
	if err != nil {
		return nil, invalidData("header is not base64url")
	}
	var h Header
	if err := json.Unmarshal(hb, &h); err != nil {
		return nil, invalidData("header is not json")
	}
	if h.FID <= 0 {
		return nil, invalidData("header fid must be positive")
	}
	if h.Type != HeaderTypeAppKey {
		return nil, invalidData("unsupported header type %q", h.Type)
	}
	key, err := parseKey(h.Key)
	if err != nil {
		return nil, invalidData("header key: %v", err)
	}

	payload, err := decodeSegment(env.Payload)
	if err != nil {
		return nil, invalidData("payload is not base64url")
	}
	sig, err := decodeSegment(env.Signature)
	if err != nil {
		return nil, invalidData("signature is not base64url")
	}
	if len(sig) != ed25519.SignatureSize {
		return nil, invalidData("signature is %d bytes", len(sig))
	}

	signed := strings.TrimRight(env.Header, "=") + "." + strings.TrimRight(env.Payload, "=")
	if !ed25519.Verify(key, []byte(signed), sig) {
		// Some clients sign the padded form.
		if !ed25519.Verify(key, []byte(env.Header+"."+env.Payload), sig) {
			return nil, invalidData("signature does not match")
		}
	}
	return &Verified{Header: h, AppKey: key, Payload: payload}, nil
}

// Sign builds an envelope for payload signed with priv on behalf of fid.
func Sign(fid int64, priv ed25519.PrivateKey, payload any) (Envelope, error) {
	pub, ok := priv.Public().(ed25519.PublicKey)
	if !ok {
		return Envelope{}, fmt.Errorf("sign: unexpected public key type")
	}
	hb, err := json.Marshal(Header{FID: fid, Type: HeaderTypeAppKey, Key: KeyHex(pub)})
	if err != nil {
		return Envelope{}, err
	}
	pb, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	env := Envelope{Header: encodeSegment(hb), Payload: encodeSegment(pb)}
	env.Signature = encodeSegment(ed25519.Sign(priv, []byte(env.Header+"."+env.Payload)))
	return env, nil
}
