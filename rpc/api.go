// api.go implements the sale_ namespace JSON-RPC methods. Mutating
// methods take the caller's address as their first parameter; the server
// trusts the declared identity, so authentication has to happen at a
// layer in front of it.
package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"github.com/salenode/salenode/core"
	"github.com/salenode/salenode/core/types"
)

// SaleAPI dispatches sale_ namespace methods to the contract.
type SaleAPI struct {
	sale *core.TokenSale
}

// NewSaleAPI creates the API service for the given contract.
func NewSaleAPI(sale *core.TokenSale) *SaleAPI {
	return &SaleAPI{sale: sale}
}

// HandleRequest dispatches a JSON-RPC request to the appropriate method.
func (api *SaleAPI) HandleRequest(req *Request) *Response {
	switch req.Method {
	case "sale_transfer":
		return api.transfer(req)
	case "sale_approve":
		return api.approve(req)
	case "sale_transferFrom":
		return api.transferFrom(req)
	case "sale_initializeSale":
		return api.initializeSale(req)
	case "sale_startSale":
		return api.startSale(req)
	case "sale_endSale":
		return api.endSale(req)
	case "sale_commit":
		return api.commit(req)
	case "sale_reveal":
		return api.reveal(req)
	case "sale_pauseContract":
		return api.pauseContract(req)
	case "sale_unpauseContract":
		return api.unpauseContract(req)
	case "sale_stopContract":
		return api.stopContract(req)
	case "sale_resumeContract":
		return api.resumeContract(req)
	case "sale_withdrawEther":
		return api.withdrawEther(req)
	case "sale_emergencyWithdraw":
		return api.emergencyWithdraw(req)
	case "sale_balanceOf":
		return api.balanceOf(req)
	case "sale_allowance":
		return api.allowance(req)
	case "sale_totalSupply":
		return api.totalSupply(req)
	case "sale_info":
		return api.info(req)
	case "sale_commitOf":
		return api.commitOf(req)
	case "sale_events":
		return api.events(req)
	default:
		return errorResponse(req.ID, ErrCodeMethodNotFound, fmt.Sprintf("method %q not found", req.Method))
	}
}

// --- Parameter decoding helpers ---

func addrParam(raw json.RawMessage) (types.Address, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return types.Address{}, fmt.Errorf("invalid address parameter: %s", string(raw))
	}
	b, err := hexutil.Decode(s)
	if err != nil || len(b) != types.AddressLength {
		return types.Address{}, fmt.Errorf("invalid address: %s", s)
	}
	return types.BytesToAddress(b), nil
}

func u256Param(raw json.RawMessage) (*uint256.Int, error) {
	var hb hexutil.Big
	if err := json.Unmarshal(raw, &hb); err != nil {
		return nil, fmt.Errorf("invalid quantity parameter: %s", string(raw))
	}
	v, overflow := uint256.FromBig((*big.Int)(&hb))
	if overflow {
		return nil, fmt.Errorf("quantity exceeds 256 bits: %s", string(raw))
	}
	return v, nil
}

func bigParam(raw json.RawMessage) (*big.Int, error) {
	var hb hexutil.Bytes
	if err := json.Unmarshal(raw, &hb); err != nil {
		return nil, fmt.Errorf("invalid bytes parameter: %s", string(raw))
	}
	return new(big.Int).SetBytes(hb), nil
}

func uint64Param(raw json.RawMessage) (uint64, error) {
	var hu hexutil.Uint64
	if err := json.Unmarshal(raw, &hu); err != nil {
		return 0, fmt.Errorf("invalid integer parameter: %s", string(raw))
	}
	return uint64(hu), nil
}

func requireParams(req *Request, n int) error {
	if len(req.Params) != n {
		return fmt.Errorf("expected %d parameters, got %d", n, len(req.Params))
	}
	return nil
}

func errorResponse(id json.RawMessage, code int, message string) *Response {
	return &Response{JSONRPC: "2.0", Error: &RPCError{Code: code, Message: message}, ID: id}
}

func resultResponse(id json.RawMessage, result interface{}) *Response {
	return &Response{JSONRPC: "2.0", Result: result, ID: id}
}

func contractResponse(id json.RawMessage, err error) *Response {
	if err != nil {
		return errorResponse(id, contractErrorCode(err), err.Error())
	}
	return resultResponse(id, true)
}

// --- Mutating methods ---

func (api *SaleAPI) transfer(req *Request) *Response {
	if err := requireParams(req, 3); err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	from, err := addrParam(req.Params[0])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	to, err := addrParam(req.Params[1])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	value, err := u256Param(req.Params[2])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	return contractResponse(req.ID, api.sale.Transfer(from, to, value))
}

func (api *SaleAPI) approve(req *Request) *Response {
	if err := requireParams(req, 3); err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	from, err := addrParam(req.Params[0])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	spender, err := addrParam(req.Params[1])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	value, err := u256Param(req.Params[2])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	return contractResponse(req.ID, api.sale.Approve(from, spender, value))
}

func (api *SaleAPI) transferFrom(req *Request) *Response {
	if err := requireParams(req, 4); err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	caller, err := addrParam(req.Params[0])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	from, err := addrParam(req.Params[1])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	to, err := addrParam(req.Params[2])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	value, err := u256Param(req.Params[3])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	return contractResponse(req.ID, api.sale.TransferFrom(caller, from, to, value))
}

func (api *SaleAPI) initializeSale(req *Request) *Response {
	if err := requireParams(req, 2); err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	from, err := addrParam(req.Params[0])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	price, err := u256Param(req.Params[1])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	return contractResponse(req.ID, api.sale.InitializeSale(from, price))
}

func (api *SaleAPI) startSale(req *Request) *Response {
	from, resp := api.singleAddr(req)
	if resp != nil {
		return resp
	}
	return contractResponse(req.ID, api.sale.StartSale(from))
}

func (api *SaleAPI) endSale(req *Request) *Response {
	from, resp := api.singleAddr(req)
	if resp != nil {
		return resp
	}
	return contractResponse(req.ID, api.sale.EndSale(from))
}

func (api *SaleAPI) commit(req *Request) *Response {
	if err := requireParams(req, 3); err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	from, err := addrParam(req.Params[0])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	payment, err := u256Param(req.Params[1])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	commitValue, err := bigParam(req.Params[2])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	return contractResponse(req.ID, api.sale.Commit(from, payment, commitValue))
}

func (api *SaleAPI) reveal(req *Request) *Response {
	if err := requireParams(req, 3); err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	from, err := addrParam(req.Params[0])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	salt, err := u256Param(req.Params[1])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	value, err := u256Param(req.Params[2])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	return contractResponse(req.ID, api.sale.Reveal(from, salt, value))
}

func (api *SaleAPI) pauseContract(req *Request) *Response {
	if err := requireParams(req, 2); err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	from, err := addrParam(req.Params[0])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	duration, err := uint64Param(req.Params[1])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	return contractResponse(req.ID, api.sale.PauseContract(from, int64(duration)))
}

func (api *SaleAPI) unpauseContract(req *Request) *Response {
	from, resp := api.singleAddr(req)
	if resp != nil {
		return resp
	}
	return contractResponse(req.ID, api.sale.UnpauseContract(from))
}

func (api *SaleAPI) stopContract(req *Request) *Response {
	from, resp := api.singleAddr(req)
	if resp != nil {
		return resp
	}
	return contractResponse(req.ID, api.sale.StopContract(from))
}

func (api *SaleAPI) resumeContract(req *Request) *Response {
	from, resp := api.singleAddr(req)
	if resp != nil {
		return resp
	}
	return contractResponse(req.ID, api.sale.ResumeContract(from))
}

func (api *SaleAPI) withdrawEther(req *Request) *Response {
	if err := requireParams(req, 2); err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	from, err := addrParam(req.Params[0])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	amount, err := u256Param(req.Params[1])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	return contractResponse(req.ID, api.sale.WithdrawEther(from, amount))
}

func (api *SaleAPI) emergencyWithdraw(req *Request) *Response {
	from, resp := api.singleAddr(req)
	if resp != nil {
		return resp
	}
	return contractResponse(req.ID, api.sale.EmergencyWithdraw(from))
}

// singleAddr decodes the common single-address parameter shape.
func (api *SaleAPI) singleAddr(req *Request) (types.Address, *Response) {
	if err := requireParams(req, 1); err != nil {
		return types.Address{}, errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	from, err := addrParam(req.Params[0])
	if err != nil {
		return types.Address{}, errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	return from, nil
}

// --- Read-only methods ---

func (api *SaleAPI) balanceOf(req *Request) *Response {
	addr, resp := api.singleAddr(req)
	if resp != nil {
		return resp
	}
	return resultResponse(req.ID, (*hexutil.Big)(api.sale.BalanceOf(addr).ToBig()))
}

func (api *SaleAPI) allowance(req *Request) *Response {
	if err := requireParams(req, 2); err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	owner, err := addrParam(req.Params[0])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	spender, err := addrParam(req.Params[1])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	return resultResponse(req.ID, (*hexutil.Big)(api.sale.Allowance(owner, spender).ToBig()))
}

func (api *SaleAPI) totalSupply(req *Request) *Response {
	return resultResponse(req.ID, (*hexutil.Big)(api.sale.TotalSupply().ToBig()))
}

// SaleInfo is the sale_info result payload.
type SaleInfo struct {
	Owner        string         `json:"owner"`
	Pauser       string         `json:"pauser"`
	Price        *hexutil.Big   `json:"price"`
	Initialized  bool           `json:"initialized"`
	Active       bool           `json:"active"`
	Paused       bool           `json:"paused"`
	Stopped      bool           `json:"stopped"`
	Vault        *hexutil.Big   `json:"vault"`
	TotalSupply  *hexutil.Big   `json:"totalSupply"`
	RevealPeriod hexutil.Uint64 `json:"revealPeriod"`
}

func (api *SaleAPI) info(req *Request) *Response {
	info := &SaleInfo{
		Owner:        api.sale.Owner().Hex(),
		Pauser:       api.sale.Pauser().Hex(),
		Initialized:  api.sale.Initialized(),
		Active:       api.sale.Active(),
		Paused:       api.sale.Paused(),
		Stopped:      api.sale.Stopped(),
		Vault:        (*hexutil.Big)(api.sale.Vault().ToBig()),
		TotalSupply:  (*hexutil.Big)(api.sale.TotalSupply().ToBig()),
		RevealPeriod: hexutil.Uint64(api.sale.RevealPeriod()),
	}
	if price := api.sale.Price(); price != nil {
		info.Price = (*hexutil.Big)(price.ToBig())
	}
	return resultResponse(req.ID, info)
}

// CommitInfo is the sale_commitOf result payload.
type CommitInfo struct {
	Exists    bool          `json:"exists"`
	Timestamp int64         `json:"timestamp,omitempty"`
	Value     hexutil.Bytes `json:"value,omitempty"`
}

func (api *SaleAPI) commitOf(req *Request) *Response {
	addr, resp := api.singleAddr(req)
	if resp != nil {
		return resp
	}
	ts, value, ok := api.sale.CommitOf(addr)
	info := &CommitInfo{Exists: ok}
	if ok {
		info.Timestamp = ts
		info.Value = value.Bytes()
	}
	return resultResponse(req.ID, info)
}

// EventInfo is an element of the sale_events result payload.
type EventInfo struct {
	Seq          uint64        `json:"seq"`
	Kind         string        `json:"kind"`
	Address      string        `json:"address"`
	Counterparty string        `json:"counterparty,omitempty"`
	Amount       *hexutil.Big  `json:"amount,omitempty"`
	Data         hexutil.Bytes `json:"data,omitempty"`
	Time         int64         `json:"time"`
}

func (api *SaleAPI) events(req *Request) *Response {
	var after uint64
	if len(req.Params) > 1 {
		return errorResponse(req.ID, ErrCodeInvalidParams, "expected at most 1 parameter")
	}
	if len(req.Params) == 1 {
		v, err := uint64Param(req.Params[0])
		if err != nil {
			return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
		}
		after = v
	}
	evs := api.sale.Feed().Events(after)
	out := make([]EventInfo, 0, len(evs))
	for _, ev := range evs {
		info := EventInfo{
			Seq:     ev.Seq,
			Kind:    string(ev.Kind),
			Address: ev.Address.Hex(),
			Data:    ev.Data,
			Time:    ev.Time,
		}
		if !ev.Counterparty.IsZero() {
			info.Counterparty = ev.Counterparty.Hex()
		}
		if ev.Amount != nil {
			info.Amount = (*hexutil.Big)(ev.Amount.ToBig())
		}
		out = append(out, info)
	}
	return resultResponse(req.ID, out)
}
