package handlers

import (
	"strings"
	"testing"
)

func TestVerifySignatureRoundTrip(t *testing.T) {
	body := []byte(`{"type":"cast.created"}`)
	header := SignBody(body, "topsecret")
	if !strings.HasPrefix(header, "sha256=") {
		t.Fatalf("header missing scheme prefix: %q", header)
	}
	if !VerifySignature(body, header, "topsecret") {
		t.Fatalf("valid signature rejected")
	}
}

func TestVerifySignatureWrongSecret(t *testing.T) {
	body := []byte(`{"type":"cast.created"}`)
	header := SignBody(body, "topsecret")
	if VerifySignature(body, header, "other") {
		t.Fatalf("signature accepted with wrong secret")
	}
}

func TestVerifySignatureTamperedBody(t *testing.T) {
	body := []byte(`{"type":"cast.created"}`)
	header := SignBody(body, "topsecret")
	if VerifySignature([]byte(`{"type":"cast.deleted"}`), header, "topsecret") {
		t.Fatalf("signature accepted for modified body")
	}
}

func TestVerifySignatureMissingHeader(t *testing.T) {
	if VerifySignature([]byte("x"), "", "topsecret") {
		t.Fatalf("missing header must fail closed")
	}
}

func TestVerifySignatureMalformedHex(t *testing.T) {
	if VerifySignature([]byte("x"), "sha256=not-hex", "topsecret") {
		t.Fatalf("malformed signature must fail closed")
	}
}

func TestVerifySignatureRequiresSchemePrefix(t *testing.T) {
	// A correct digest without the "sha256=" prefix is malformed.
	body := []byte("payload")
	header := strings.TrimPrefix(SignBody(body, "s"), "sha256=")
	if VerifySignature(body, header, "s") {
		t.Fatalf("bare hex signature must be rejected")
	}
}
