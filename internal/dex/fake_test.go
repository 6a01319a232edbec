package dex

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"poolsim/internal/ticks"
)

type fakeToken struct {
	decimals uint8
	symbol   string
	name     string
	bytes32  bool
}

// fakeChain answers pool and ERC20 getters from in-memory state.
type fakeChain struct {
	pool        common.Address
	token0      common.Address
	token1      common.Address
	fee         int64
	tickSpacing int32
	liquidity   *big.Int
	sqrtPrice   *big.Int
	tick        int32
	ticks       map[int32]ticks.Tick
	tokens      map[common.Address]fakeToken
	fail        string

	mu    sync.Mutex
	calls map[string]int
}

func (f *fakeChain) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeChain) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if msg.To == nil || len(msg.Data) < 4 {
		return nil, fmt.Errorf("bad call")
	}
	if *msg.To == f.pool {
		parsed, err := V3PoolABI()
		if err != nil {
			return nil, err
		}
		return f.answer(parsed, msg.Data, f.poolMethod)
	}
	token, ok := f.tokens[*msg.To]
	if !ok {
		return nil, fmt.Errorf("execution reverted")
	}
	parsed, err := erc20StringABI()
	if token.bytes32 {
		parsed, err = erc20Bytes32ABI()
	}
	if err != nil {
		return nil, err
	}
	return f.answer(parsed, msg.Data, func(method *abi.Method, _ []interface{}) ([]byte, error) {
		switch method.Name {
		case "decimals":
			return method.Outputs.Pack(token.decimals)
		case "symbol":
			if token.bytes32 {
				return method.Outputs.Pack(toBytes32(token.symbol))
			}
			return method.Outputs.Pack(token.symbol)
		case "name":
			if token.bytes32 {
				return method.Outputs.Pack(toBytes32(token.name))
			}
			return method.Outputs.Pack(token.name)
		}
		return nil, fmt.Errorf("unknown method %s", method.Name)
	})
}

func (f *fakeChain) answer(parsed abi.ABI, data []byte, handle func(*abi.Method, []interface{}) ([]byte, error)) ([]byte, error) {
	method, err := parsed.MethodById(data[:4])
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[method.Name]++
	f.mu.Unlock()
	if method.Name == f.fail {
		return nil, fmt.Errorf("rpc unavailable")
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, err
	}
	return handle(method, args)
}

func (f *fakeChain) poolMethod(method *abi.Method, args []interface{}) ([]byte, error) {
	switch method.Name {
	case "token0":
		return method.Outputs.Pack(f.token0)
	case "token1":
		return method.Outputs.Pack(f.token1)
	case "fee":
		return method.Outputs.Pack(big.NewInt(f.fee))
	case "tickSpacing":
		return method.Outputs.Pack(big.NewInt(int64(f.tickSpacing)))
	case "liquidity":
		return method.Outputs.Pack(f.liquidity)
	case "slot0":
		return method.Outputs.Pack(f.sqrtPrice, big.NewInt(int64(f.tick)), uint16(0), uint16(1), uint16(1), uint8(0), true)
	case "tickBitmap":
		return method.Outputs.Pack(f.bitmapWord(args[0].(int16)))
	case "ticks":
		index := int32(args[0].(*big.Int).Int64())
		tick, ok := f.ticks[index]
		zero := new(big.Int)
		if !ok {
			return method.Outputs.Pack(zero, zero, zero, zero, zero, zero, uint32(0), false)
		}
		return method.Outputs.Pack(tick.LiquidityGross.ToBig(), tick.LiquidityNet, zero, zero, zero, zero, uint32(0), true)
	}
	return nil, fmt.Errorf("unknown method %s", method.Name)
}

func (f *fakeChain) bitmapWord(wordPos int16) *big.Int {
	word := new(big.Int)
	for index := range f.ticks {
		compressed := index / f.tickSpacing
		if int16(compressed>>8) == wordPos {
			word.SetBit(word, int(compressed&0xff), 1)
		}
	}
	return word
}

func toBytes32(s string) [32]byte {
	var out [32]byte
	copy(out[:], s)
	return out
}
