package jwt

// TypeJWT is the default "typ" header value.
const TypeJWT = "JWT"

// Header is the JOSE header of a compact JWS.
type Header struct {
	Algorithm Algorithm
	// Type is "typ"; Encode writes "JWT" when empty.
	Type string
	// KeyID is "kid", omitted when empty.
	KeyID string
}

// headerFromMap reads the fields we understand from a parsed header.
// Non-string typ or kid values are reported by the caller.
func headerFromMap(m map[string]interface{}) (Header, bool) {
	var h Header
	alg, ok := m["alg"].(string)
	if !ok {
		return h, false
	}
	h.Algorithm = Algorithm(alg)
	if v, present := m["typ"]; present {
		if h.Type, ok = v.(string); !ok {
			return h, false
		}
	}
	if v, present := m["kid"]; present {
		if h.KeyID, ok = v.(string); !ok {
			return h, false
		}
	}
	return h, true
}
