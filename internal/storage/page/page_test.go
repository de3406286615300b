package page

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	p := New(7, KindData)
	if err := p.SetPayload([]byte("hello page")); err != nil {
		t.Fatal(err)
	}
	p.NextPage = 42

	encoded := p.Encode()
	if len(encoded) != Size {
		t.Fatalf("encoded length = %d, want %d", len(encoded), Size)
	}

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.ID != p.ID || decoded.Kind != p.Kind || decoded.NextPage != p.NextPage {
		t.Fatalf("header mismatch: got %+v", decoded)
	}
	if !bytes.Equal(decoded.Payload(), p.Payload()) {
		t.Fatalf("payload mismatch: got %q want %q", decoded.Payload(), p.Payload())
	}
}

func TestSetPayloadTooLarge(t *testing.T) {
	p := New(1, KindData)
	oversized := make([]byte, DataSize+1)
	if err := p.SetPayload(oversized); err == nil {
		t.Fatal("expected error for payload exceeding DataSize")
	}
}

func TestSetPayloadExactCapacity(t *testing.T) {
	p := New(2, KindIndex)
	full := bytes.Repeat([]byte{0x5a}, DataSize)
	if err := p.SetPayload(full); err != nil {
		t.Fatalf("full-capacity payload should be accepted: %v", err)
	}
	if p.UsedSpace != DataSize {
		t.Fatalf("UsedSpace = %d, want %d", p.UsedSpace, DataSize)
	}
}

func TestDecodeWrongLength(t *testing.T) {
	if _, err := Decode(make([]byte, Size-1)); err == nil {
		t.Fatal("expected error decoding short buffer")
	}
	if _, err := Decode(make([]byte, Size+1)); err == nil {
		t.Fatal("expected error decoding long buffer")
	}
}
