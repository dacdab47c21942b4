package chain

import (
	"github.com/mintpool-net/premintpool/common"
)

func fromHex(s string) []byte { return common.FromHex(s) }

func hexEncode(b []byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = digits[c>>4]
		out[i*2+1] = digits[c&0xf]
	}
	return string(out)
}

func addressFromHex(s string) common.Address { return common.HexToAddress(s) }
func hashFromHex(s string) common.Hash       { return common.HexToHash(s) }
