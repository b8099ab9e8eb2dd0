package chainmaker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"tripledger/blockchain/types"
	"tripledger/config"

	"chainmaker.org/chainmaker/pb-go/v2/common"
	sdk "chainmaker.org/chainmaker/sdk-go/v2"
)

// Client is the wrapper around the ChainMaker SDK client
type Client struct {
	sdkClient *sdk.ChainClient
	cfg       *config.BlockchainConfig
	cmCfg     *ChainMakerConfig
	logger    *log.Logger
}

// NewChainMakerClient initializes the ChainMaker SDK client with the combined configuration
func NewChainMakerClient(cfg *config.BlockchainConfig, logger *log.Logger) (*Client, error) {
	logger.Println("Initializing ChainMaker SDK client using builder pattern...")

	// Extract ChainMaker-specific configuration
	chainmakerCfg, ok := cfg.ChainSpecific.(*ChainMakerConfig)
	if !ok || chainmakerCfg == nil {
		return nil, fmt.Errorf("invalid ChainMaker configuration type")
	}

	var clientOptions []sdk.ChainClientOption
	clientOptions = append(clientOptions, sdk.WithChainClientOrgId(chainmakerCfg.OrgID))
	clientOptions = append(clientOptions, sdk.WithChainClientChainId(chainmakerCfg.ChainID))
	clientOptions = append(clientOptions, sdk.WithUserKeyFilePath(chainmakerCfg.UserKeyPath))
	clientOptions = append(clientOptions, sdk.WithUserCrtFilePath(chainmakerCfg.UserCertPath))
	clientOptions = append(clientOptions, sdk.WithUserSignKeyFilePath(chainmakerCfg.UserSignKeyPath))
	clientOptions = append(clientOptions, sdk.WithUserSignCrtFilePath(chainmakerCfg.UserSignCertPath))

	if len(chainmakerCfg.Nodes) == 0 {
		return nil, fmt.Errorf("no node configurations provided in config")
	}
	for _, nodeCfg := range chainmakerCfg.Nodes {
		if nodeCfg.UseTLS && len(nodeCfg.CaPaths) == 0 {
			return nil, fmt.Errorf("node %s has TLS enabled but no CaPaths provided", nodeCfg.Address)
		}
		sdkNodeConfig := sdk.NewNodeConfig(
			sdk.WithNodeAddr(nodeCfg.Address),
			sdk.WithNodeConnCnt(nodeCfg.ConnCount),
			sdk.WithNodeUseTLS(nodeCfg.UseTLS),
			sdk.WithNodeCAPaths(nodeCfg.CaPaths),
			sdk.WithNodeTLSHostName(nodeCfg.TLSHostName),
		)
		clientOptions = append(clientOptions, sdk.AddChainClientNodeConfig(sdkNodeConfig))
	}

	// Apply common configuration (retry, timeout, etc.)
	if cfg.RetryLimit > 0 {
		clientOptions = append(clientOptions, sdk.WithRetryLimit(cfg.RetryLimit))
	}
	if cfg.RetryInterval > 0 {
		clientOptions = append(clientOptions, sdk.WithRetryInterval(cfg.RetryInterval))
	}

	client, err := sdk.NewChainClient(clientOptions...)
	if err != nil {
		logger.Printf("Failed to build ChainMaker SDK client: %v\n", err)
		return nil, err
	}

	if err := client.EnableCertHash(); err != nil {
		logger.Printf("Warning: Failed to enable cert hash: %v\n", err)
	}

	logger.Println("ChainMaker SDK client initialized successfully.")

	return &Client{
		sdkClient: client,
		cfg:       cfg,
		cmCfg:     chainmakerCfg,
		logger:    logger,
	}, nil
}

// Config returns the configuration associated with the client.
func (c *Client) Config() any {
	return c.cmCfg
}

// Close stops the SDK client
func (c *Client) Close() error {
	c.logger.Println("Closing ChainMaker SDK client...")
	if err := c.sdkClient.Stop(); err != nil {
		c.logger.Printf("Error stopping ChainMaker SDK client: %v", err)
		return fmt.Errorf("failed to stop ChainMaker SDK client: %w", err)
	}
	return nil
}

func (c *Client) timeout() int64 {
	return int64(c.cfg.TimeoutSeconds)
}

// SubmitAnchorsBatch anchors a batch of roots in a single transaction
func (c *Client) SubmitAnchorsBatch(ctx context.Context, entries []types.AnchorEntry) (*types.BatchProof, []types.AnchorStatusInfo, error) {
	if len(entries) == 0 {
		return nil, nil, fmt.Errorf("anchor entry batch cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	anchorsJsonBytes, err := json.Marshal(entries)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal anchor entries to JSON: %w", err)
	}

	kvs := []*common.KeyValuePair{
		{
			Key:   c.cmCfg.ParamKeyAnchorsJson,
			Value: anchorsJsonBytes,
		},
	}

	resp, err := c.sdkClient.InvokeContract(
		c.cmCfg.ContractName,
		c.cmCfg.SubmitAnchorsBatchMethodName,
		"",
		kvs,
		c.timeout(),
		true,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("SDK batch invoke failed: %w", err)
	}

	if resp.Code != common.TxStatusCode_SUCCESS {
		return nil, nil, fmt.Errorf("contract batch execution failed: %s (code: %d)", resp.Message, resp.Code)
	}
	if resp.ContractResult == nil {
		return nil, nil, fmt.Errorf("contract batch execution returned nil result (tx: %s)", resp.TxId)
	}

	resultJsonBytes := resp.ContractResult.Result
	if len(resultJsonBytes) == 0 {
		return nil, nil, fmt.Errorf("contract batch execution returned empty result bytes (tx: %s)", resp.TxId)
	}

	var results []types.AnchorStatusInfo
	if err := json.Unmarshal(resultJsonBytes, &results); err != nil {
		c.logger.Printf("Failed to unmarshal batch results JSON (TxID: %s). Raw result: %s", resp.TxId, string(resultJsonBytes))
		return nil, nil, fmt.Errorf("failed to unmarshal contract batch results: %w", err)
	}

	batchProof := &types.BatchProof{
		TransactionID: resp.TxId,
		BlockHeight:   resp.TxBlockHeight,
	}
	return batchProof, results, nil
}

// FindAnchorByRoot queries the contract for the anchor of a root hash
func (c *Client) FindAnchorByRoot(ctx context.Context, rootHash string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if c.cmCfg.FindAnchorByRootMethodName == "" || c.cmCfg.ParamKeyRootHash == "" {
		return "", fmt.Errorf("find_anchor_by_root_method_name and param_key_root_hash are not configured")
	}
	kvs := []*common.KeyValuePair{{Key: c.cmCfg.ParamKeyRootHash, Value: []byte(rootHash)}}
	resp, err := c.sdkClient.QueryContract(c.cmCfg.ContractName, c.cmCfg.FindAnchorByRootMethodName, kvs, c.timeout())
	if err != nil {
		return "", fmt.Errorf("SDK query failed: %w", err)
	}
	if resp.Code != common.TxStatusCode_SUCCESS {
		return "", fmt.Errorf("contract query failed: %s (code: %d)", resp.Message, resp.Code)
	}
	if resp.ContractResult == nil {
		return "", fmt.Errorf("contract query returned nil result for root %s", rootHash)
	}
	return string(resp.ContractResult.Result), nil
}

// GetAnchorByTxHash performs the public audit by reading the anchoring event of a transaction
func (c *Client) GetAnchorByTxHash(ctx context.Context, txHash string) (*types.AnchorData, error) {
	if txHash == "" {
		return nil, fmt.Errorf("transaction hash cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	txInfo, err := c.sdkClient.GetTxByTxId(txHash)
	if err != nil {
		return nil, fmt.Errorf("SDK get transaction failed: %w", err)
	}
	if txInfo == nil || txInfo.Transaction == nil || txInfo.Transaction.Result == nil || txInfo.Transaction.Result.ContractResult == nil {
		return nil, fmt.Errorf("transaction data is incomplete or nil for tx: %s", txHash)
	}
	if txInfo.Transaction.Result.Code != common.TxStatusCode_SUCCESS {
		return nil, fmt.Errorf("transaction execution failed: %s", txInfo.Transaction.Result.Message)
	}
	for _, event := range txInfo.Transaction.Result.ContractResult.ContractEvent {
		if event.Topic != c.cmCfg.AnchorEventTopic {
			continue
		}
		eventData := event.EventData
		if len(eventData) != 3 {
			return nil, fmt.Errorf("malformed event data: expected 3 fields, got %d", len(eventData))
		}
		return &types.AnchorData{RootHash: eventData[0], AuditID: eventData[1], Timestamp: eventData[2]}, nil
	}
	return nil, fmt.Errorf("event '%s' not found in transaction %s", c.cmCfg.AnchorEventTopic, txHash)
}
