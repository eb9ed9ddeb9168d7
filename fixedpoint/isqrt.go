package fixedpoint

// ISqrt returns the integer square root of n, the greatest integer r with
// r*r <= n. Panics on a negative argument.
func ISqrt(n int32) int32 {
	if n < 0 {
		panic("fixedpoint: ISqrt: negative argument")
	}

	q := int32(1)
	r := int32(0)

	if n >= 1<<30 {
		// Values >= 2^30 are peeled off first: shifting q past them
		// would wrap it to zero and the loop below would never exit.
		q = 1 << 30
		n = n - r - q
		r += q
	} else {
		for q <= n {
			q <<= 2
		}
	}

	for q > 1 {
		q >>= 2
		t := n - r - q
		r >>= 1
		if t >= 0 {
			n = t
			r += q
		}
	}
	return r
}

// ISqrt64 returns the integer square root of an unsigned 64-bit value.
func ISqrt64(n uint64) uint32 {
	var result uint64
	bit := uint64(1) << 62

	for bit > n {
		bit >>= 2
	}

	for bit != 0 {
		if n >= result+bit {
			n -= result + bit
			result = result>>1 + bit
		} else {
			result >>= 1
		}
		bit >>= 2
	}
	return uint32(result)
}
