package params

const (
	// SecParam is the security parameter, in bits, that every other size in
	// the scheme derives from.
	SecParam = 256

	// BitsBlumPrime is the size of the primes p, q of an election modulus
	// n = p⋅q. Both primes are ≡ 3 (mod 4).
	BitsBlumPrime = 4 * SecParam // = 1024
	// BitsPaillier is the size of an election modulus n.
	BitsPaillier = 2 * BitsBlumPrime // = 2048

	BytesPaillier = BitsPaillier / 8 // = 256
	// BytesCiphertext is the fixed width of an encoded ciphertext, which
	// lives mod n².
	BytesCiphertext = 2 * BytesPaillier // = 512

	// BytesReceipt is the digest length of a ballot receipt; the hex form
	// handed to the voter is twice as long.
	BytesReceipt = 32
)
