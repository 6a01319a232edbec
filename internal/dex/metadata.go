package dex

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"poolsim/internal/model"
)

// TokenCache memoizes ERC20 metadata by address. Safe for concurrent use.
type TokenCache struct {
	data *lru.Cache[common.Address, model.TokenMeta]
}

func NewTokenCache(size int) (*TokenCache, error) {
	data, err := lru.New[common.Address, model.TokenMeta](size)
	if err != nil {
		return nil, fmt.Errorf("token cache: %w", err)
	}
	return &TokenCache{data: data}, nil
}

func (c *TokenCache) Get(address common.Address) (model.TokenMeta, bool) {
	return c.data.Get(address)
}

func (c *TokenCache) Add(address common.Address, meta model.TokenMeta) {
	c.data.Add(address, meta)
}

// FetchPoolSnapshot reads pool identity, slot0 and liquidity at blockNumber (0 means latest).
// Tick data is not included.
func FetchPoolSnapshot(ctx context.Context, caller ContractCaller, chainID uint64, pool common.Address, blockNumber uint64, tokens *TokenCache, logger *zap.Logger) (model.PoolSnapshot, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	poolABI, err := V3PoolABI()
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("parse pool abi: %w", err)
	}
	block := blockArg(blockNumber)

	values, err := callMethod(ctx, caller, pool, poolABI, block, "token0")
	if err != nil {
		return model.PoolSnapshot{}, err
	}
	token0, err := asAddress(values[0])
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("token0: %w", err)
	}

	values, err = callMethod(ctx, caller, pool, poolABI, block, "token1")
	if err != nil {
		return model.PoolSnapshot{}, err
	}
	token1, err := asAddress(values[0])
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("token1: %w", err)
	}

	values, err = callMethod(ctx, caller, pool, poolABI, block, "fee")
	if err != nil {
		return model.PoolSnapshot{}, err
	}
	feeInt, err := asBigInt(values[0])
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("fee: %w", err)
	}
	if !feeInt.IsUint64() || feeInt.Uint64() >= model.FeeDenominator {
		return model.PoolSnapshot{}, fmt.Errorf("fee out of range: %s", feeInt)
	}

	values, err = callMethod(ctx, caller, pool, poolABI, block, "tickSpacing")
	if err != nil {
		return model.PoolSnapshot{}, err
	}
	tickSpacing, err := asInt24(values[0])
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("tick spacing: %w", err)
	}

	values, err = callMethod(ctx, caller, pool, poolABI, block, "liquidity")
	if err != nil {
		return model.PoolSnapshot{}, err
	}
	liquidity, err := asBigInt(values[0])
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("liquidity: %w", err)
	}

	values, err = callMethod(ctx, caller, pool, poolABI, block, "slot0")
	if err != nil {
		return model.PoolSnapshot{}, err
	}
	if len(values) < 2 {
		return model.PoolSnapshot{}, fmt.Errorf("slot0: short result")
	}
	sqrtPrice, err := asBigInt(values[0])
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("slot0 sqrt price: %w", err)
	}
	tick, err := asInt24(values[1])
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("slot0 tick: %w", err)
	}

	meta0, err := cachedTokenMeta(ctx, caller, token0, tokens, logger)
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("token0 metadata: %w", err)
	}
	meta1, err := cachedTokenMeta(ctx, caller, token1, tokens, logger)
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("token1 metadata: %w", err)
	}

	return model.PoolSnapshot{
		ChainID:     chainID,
		Address:     pool.Hex(),
		BlockNumber: blockNumber,
		Token0:      meta0,
		Token1:      meta1,
		Fee:         uint32(feeInt.Uint64()),
		TickSpacing: tickSpacing,
		Slot0:       model.PoolSlot0{SqrtPriceX96: sqrtPrice.String(), Tick: tick},
		Liquidity:   liquidity.String(),
	}, nil
}

func cachedTokenMeta(ctx context.Context, caller ContractCaller, token common.Address, tokens *TokenCache, logger *zap.Logger) (model.TokenMeta, error) {
	if tokens != nil {
		if meta, ok := tokens.Get(token); ok {
			return meta, nil
		}
	}
	meta, err := FetchTokenMeta(ctx, caller, token, logger)
	if err != nil {
		return meta, err
	}
	if tokens != nil {
		tokens.Add(token, meta)
	}
	return meta, nil
}

// FetchTokenMeta loads token metadata via ERC20 calls. Decimals are required;
// symbol and name are best effort.
func FetchTokenMeta(ctx context.Context, caller ContractCaller, token common.Address, logger *zap.Logger) (model.TokenMeta, error) {
	meta := model.TokenMeta{Address: token.Hex()}
	if logger == nil {
		logger = zap.NewNop()
	}

	stringABI, err := erc20StringABI()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20Bytes32ABI()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	values, err := callMethod(ctx, caller, token, stringABI, nil, "decimals")
	if err != nil {
		return meta, err
	}
	if meta.Decimals, err = asUint8(values[0]); err != nil {
		return meta, fmt.Errorf("decimals: %w", err)
	}

	text := func(method string) string {
		if values, err := callMethod(ctx, caller, token, stringABI, nil, method); err == nil {
			if s, ok := values[0].(string); ok {
				return s
			}
		}
		values, err := callMethod(ctx, caller, token, bytes32ABI, nil, method)
		if err != nil {
			logger.Debug(method+" call failed", zap.String("token", token.Hex()), zap.Error(err))
			return ""
		}
		s, _ := bytes32ToString(values[0])
		return s
	}
	meta.Symbol = text("symbol")
	meta.Name = text("name")

	return meta, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case *big.Int:
		if !v.IsUint64() || v.Uint64() > 255 {
			return 0, fmt.Errorf("uint8 overflow: %s", v)
		}
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}

func asInt24(value interface{}) (int32, error) {
	v, err := asBigInt(value)
	if err != nil {
		return 0, err
	}
	if v.Cmp(big.NewInt(-1<<23)) < 0 || v.Cmp(big.NewInt(1<<23-1)) > 0 {
		return 0, fmt.Errorf("int24 overflow: %s", v)
	}
	return int32(v.Int64()), nil
}
