package payout

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/blues/sfs/internal/config"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Sender 原子转账能力，要么成功要么失败，由调用方决定整体回滚
type Sender interface {
	// Transfer 向目标地址转账，返回交易哈希
	Transfer(ctx context.Context, to string, amount int64) (string, error)
}

// EthSender 基于以太坊客户端的转账实现
type EthSender struct {
	client     *ethclient.Client
	privateKey *ecdsa.PrivateKey
	from       common.Address
	chainId    *big.Int
}

// Init 创建以太坊转账客户端
func Init(cfg config.ChainConfig) (*EthSender, error) {
	// 连接以太坊客户端
	client, err := ethclient.Dial(cfg.RpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ethereum client: %w", err)
	}

	// 解析私钥
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("failed to derive public key")
	}

	return &EthSender{
		client:     client,
		privateKey: privateKey,
		from:       crypto.PubkeyToAddress(*publicKey),
		chainId:    big.NewInt(cfg.ChainId),
	}, nil
}

// Transfer 发送一笔原生币转账
func (s *EthSender) Transfer(ctx context.Context, to string, amount int64) (string, error) {
	if !common.IsHexAddress(to) {
		return "", fmt.Errorf("invalid destination address: %s", to)
	}

	nonce, err := s.client.PendingNonceAt(ctx, s.from)
	if err != nil {
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := s.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get gas price: %w", err)
	}

	tx := types.NewTransaction(
		nonce,
		common.HexToAddress(to),
		big.NewInt(amount),
		21000,
		gasPrice,
		nil,
	)

	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(s.chainId), s.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := s.client.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	return signedTx.Hash().Hex(), nil
}
