package pool

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"poolsim/internal/model"
)

var (
	// DefaultFactory is the Uniswap V3 factory on Ethereum mainnet.
	DefaultFactory = common.HexToAddress("0x1F98431c8aD98523631AE4a59f267346ea31F984")
	// PoolInitCodeHash is keccak256 of the pool creation code deployed by DefaultFactory.
	PoolInitCodeHash = common.HexToHash("0xe34f199b19b2b4f47f68442619d555527d244f78a3297ea89325f843f87b8b54")
)

var saltArguments = func() abi.Arguments {
	addressType, _ := abi.NewType("address", "", nil)
	uint24Type, _ := abi.NewType("uint24", "", nil)
	return abi.Arguments{{Type: addressType}, {Type: addressType}, {Type: uint24Type}}
}()

// ComputeAddress derives the CREATE2 address of the pool for two tokens and a fee.
func ComputeAddress(factory common.Address, tokenA, tokenB model.Token, fee uint32, initCodeHash common.Hash) (common.Address, error) {
	token0, token1, err := model.SortTokens(tokenA, tokenB)
	if err != nil {
		return common.Address{}, err
	}
	encoded, err := saltArguments.Pack(token0.Address, token1.Address, new(big.Int).SetUint64(uint64(fee)))
	if err != nil {
		return common.Address{}, fmt.Errorf("pack pool salt: %w", err)
	}
	var salt [32]byte
	copy(salt[:], crypto.Keccak256(encoded))
	return crypto.CreateAddress2(factory, salt, initCodeHash.Bytes()), nil
}
