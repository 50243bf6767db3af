package cvc

import "github.com/moatus/cvc/cvcerr"

// Errors returned by this package, for use with errors.Is.
var (
	ErrNotInvertible = cvcerr.ErrNotInvertible

	ErrInvalidLength   = cvcerr.ErrInvalidLength
	ErrNonCanonical    = cvcerr.ErrNonCanonical
	ErrNotOnCurve      = cvcerr.ErrNotOnCurve
	ErrInvalidEncoding = cvcerr.ErrInvalidEncoding

	ErrSignatureMismatch  = cvcerr.ErrSignatureMismatch
	ErrMalformedSignature = cvcerr.ErrMalformedSignature
	ErrInvalidPublicKey   = cvcerr.ErrInvalidPublicKey

	ErrMalformedToken       = cvcerr.ErrMalformedToken
	ErrUnsupportedAlgorithm = cvcerr.ErrUnsupportedAlgorithm
	ErrSignatureInvalid     = cvcerr.ErrSignatureInvalid
	ErrExpired              = cvcerr.ErrExpired
	ErrNotYetValid          = cvcerr.ErrNotYetValid
	ErrKeyResolution        = cvcerr.ErrKeyResolution
	ErrInvalidClaim         = cvcerr.ErrInvalidClaim

	ErrInsufficientEntropy  = cvcerr.ErrInsufficientEntropy
	ErrInvalidConfiguration = cvcerr.ErrInvalidConfiguration
	ErrUnsupportedCurve     = cvcerr.ErrUnsupportedCurve
	ErrInvalidPrivateKey    = cvcerr.ErrInvalidPrivateKey
	ErrKeyMismatch          = cvcerr.ErrKeyMismatch
	ErrKeyDestroyed         = cvcerr.ErrKeyDestroyed
)

// IsDecodeError reports whether err is a point, scalar or encoding error.
func IsDecodeError(err error) bool { return cvcerr.IsCategory(err, cvcerr.CategoryDecode) }

// IsVerifyError reports whether err is a signature or public key error.
func IsVerifyError(err error) bool { return cvcerr.IsCategory(err, cvcerr.CategoryVerify) }

// IsJWTError reports whether err came from token decoding or validation.
func IsJWTError(err error) bool { return cvcerr.IsCategory(err, cvcerr.CategoryJWT) }
