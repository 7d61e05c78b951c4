package authsvc

// DummyDigest exposes the digest CheckMissing compares against.
func DummyDigest(v *PasswordVerifier) []byte {
	return v.dummy
}
