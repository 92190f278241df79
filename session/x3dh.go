package session

import (
	"github.com/jaydenbeard/e2ee-core/ecc"
	"github.com/jaydenbeard/e2ee-core/kdf"
)

// discontinuityPrefix domain-separates the X3DH shared secret from any
// earlier protocol version that prepended nothing before its DH outputs
// (spec §4.3).
var discontinuityPrefix = func() [32]byte {
	var b [32]byte
	for i := range b {
		b[i] = 0xff
	}
	return b
}()

const x3dhInfo = "WhisperText"

// aliceX3DH computes the initiator's view of the X3DH shared secret: Alice
// holds her own identity and ephemeral base private keys, and Bob's
// identity, signed pre-key and (optionally) one-time pre-key public keys.
func aliceX3DH(ourIdentityPriv, ourBasePriv ecc.PrivateKey, theirIdentityPub, theirSignedPreKeyPub ecc.PublicKey, theirOneTimePreKeyPub *ecc.PublicKey) ([]byte, error) {
	dh2, err := ecc.Agreement(theirSignedPreKeyPub, ourIdentityPriv)
	if err != nil {
		return nil, err
	}
	dh3, err := ecc.Agreement(theirIdentityPub, ourBasePriv)
	if err != nil {
		return nil, err
	}
	dh4, err := ecc.Agreement(theirSignedPreKeyPub, ourBasePriv)
	if err != nil {
		return nil, err
	}

	secret := append([]byte{}, discontinuityPrefix[:]...)
	secret = append(secret, dh2[:]...)
	secret = append(secret, dh3[:]...)
	secret = append(secret, dh4[:]...)

	if theirOneTimePreKeyPub != nil {
		dh5, err := ecc.Agreement(*theirOneTimePreKeyPub, ourBasePriv)
		if err != nil {
			return nil, err
		}
		secret = append(secret, dh5[:]...)
	}
	return secret, nil
}

// bobX3DH computes the responder's mirrored view: Bob holds his own
// identity, signed pre-key and (optionally) one-time pre-key private keys,
// and Alice's identity and ephemeral base public keys. Each DH agreement
// yields the same shared value as Alice's corresponding step because
// Diffie-Hellman agreement does not depend on which side's key is the
// public half and which is the private half.
func bobX3DH(ourIdentityPriv, ourSignedPreKeyPriv ecc.PrivateKey, ourOneTimePreKeyPriv *ecc.PrivateKey, theirIdentityPub, theirBaseKeyPub ecc.PublicKey) ([]byte, error) {
	dh2, err := ecc.Agreement(theirIdentityPub, ourSignedPreKeyPriv)
	if err != nil {
		return nil, err
	}
	dh3, err := ecc.Agreement(theirBaseKeyPub, ourIdentityPriv)
	if err != nil {
		return nil, err
	}
	dh4, err := ecc.Agreement(theirBaseKeyPub, ourSignedPreKeyPriv)
	if err != nil {
		return nil, err
	}

	secret := append([]byte{}, discontinuityPrefix[:]...)
	secret = append(secret, dh2[:]...)
	secret = append(secret, dh3[:]...)
	secret = append(secret, dh4[:]...)

	if ourOneTimePreKeyPriv != nil {
		dh5, err := ecc.Agreement(theirBaseKeyPub, *ourOneTimePreKeyPriv)
		if err != nil {
			return nil, err
		}
		secret = append(secret, dh5[:]...)
	}
	return secret, nil
}

// deriveRootAndChain expands an X3DH shared secret into the session's
// initial (root_key, chain_key) pair via HKDF with info "WhisperText".
func deriveRootAndChain(messageVersion int, secret []byte) (rootKey, chainKey [32]byte, err error) {
	derived, err := kdf.DeriveSecrets(messageVersion, secret, nil, []byte(x3dhInfo), 64)
	if err != nil {
		return [32]byte{}, [32]byte{}, err
	}
	copy(rootKey[:], derived[0:32])
	copy(chainKey[:], derived[32:64])
	return rootKey, chainKey, nil
}
