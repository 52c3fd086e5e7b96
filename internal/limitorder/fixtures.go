package limitorder

import (
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ExampleLimitOrder returns the single leg order used by the verify command.
func ExampleLimitOrder() LimitOrder {
	return LimitOrder{
		Input: TokenInfo{
			TokenAddress: addressOf("0xa0Cb889707d426A7A386870A03bc70d1b0697598"),
			TokenAmount:  uint256.MustFromDecimal("2001000000000000000000"),
		},
		Output: TokenInfo{
			TokenAddress: addressOf("0xc7183455a4C133Ae270771860664b6B7ec320bB1"),
			TokenAmount:  uint256.MustFromDecimal("2001000000"),
		},
		Expiry:            uint256.NewInt(86401),
		Salt:              uint256.NewInt(1),
		ReferralCode:      new(uint32),
		PartiallyFillable: new(bool),
	}
}

// ExampleMultiLimitOrder returns the two-in two-out order used by the verify command.
func ExampleMultiLimitOrder() MultiLimitOrder {
	return MultiLimitOrder{
		Inputs: []TokenInfo{
			{
				TokenAddress: addressOf("0xa0Cb889707d426A7A386870A03bc70d1b0697598"),
				TokenAmount:  uint256.MustFromDecimal("1999000000000000000000"),
			},
			{
				TokenAddress: addressOf("0x1d1499e622D69689cdf9004d05Ec547d650Ff211"),
				TokenAmount:  uint256.MustFromDecimal("2001000000000000000000"),
			},
		},
		Outputs: []TokenInfo{
			{
				TokenAddress: addressOf("0xc7183455a4C133Ae270771860664b6B7ec320bB1"),
				TokenAmount:  uint256.MustFromDecimal("2002000000"),
			},
			{
				TokenAddress: addressOf("0xA4AD4f68d0b91CFD19687c881e50f3A00242828c"),
				TokenAmount:  uint256.MustFromDecimal("1998000000000000000000"),
			},
		},
		Expiry:            uint256.NewInt(86401),
		Salt:              uint256.NewInt(1),
		ReferralCode:      new(uint32),
		PartiallyFillable: new(bool),
	}
}

func addressOf(hex string) *ethcommon.Address {
	addr := ethcommon.HexToAddress(hex)
	return &addr
}
