package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/calehh/ballot-app/address"
	"github.com/calehh/ballot-app/app"
	"github.com/calehh/ballot-app/crypto"
	"github.com/calehh/ballot-app/tx"
	"github.com/cometbft/cometbft/rpc/client/http"
)

type queryError struct {
	Path      string
	Code      uint32
	Codespace string
	Log       string
}

func (e *queryError) Error() string {
	return fmt.Sprintf("query %s: code %d (%s) %s", e.Path, e.Code, e.Codespace, e.Log)
}

func newClient(url string) (*http.HTTP, error) {
	cli, err := http.New(url, "/websocket")
	if err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}
	return cli, nil
}

func queryJSON(ctx context.Context, cli *http.HTTP, path string, data []byte, v any) error {
	res, err := cli.ABCIQuery(ctx, path, data)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	if res.Response.Code != 0 {
		return &queryError{Path: path, Code: res.Response.Code, Codespace: res.Response.Codespace, Log: res.Response.Log}
	}
	return json.Unmarshal(res.Response.Value, v)
}

func queryParams(ctx context.Context, cli *http.HTTP) (*app.ParamsView, error) {
	var params app.ParamsView
	if err := queryJSON(ctx, cli, app.QueryParams, nil, &params); err != nil {
		return nil, err
	}
	return &params, nil
}

func queryAccount(ctx context.Context, cli *http.HTTP, signer address.Address) (*app.AccountView, error) {
	var act app.AccountView
	if err := queryJSON(ctx, cli, app.QueryAccount, signer.Bytes(), &act); err != nil {
		return nil, err
	}
	return &act, nil
}

func querySession(ctx context.Context, cli *http.HTTP, session address.Address) (*app.SessionView, error) {
	var sv app.SessionView
	if err := queryJSON(ctx, cli, app.QuerySession, session.Bytes(), &sv); err != nil {
		return nil, err
	}
	return &sv, nil
}

type submitArguments struct {
	Url    string
	Skey   string
	Nonce  int64
	NoSend bool
}

// submit signs body with the key at args.Skey and broadcasts it. The nonce
// and chain id are fetched from the node unless given.
func submit(args *submitArguments, body any) error {
	cli, err := newClient(args.Url)
	if err != nil {
		return err
	}
	ctx := context.Background()
	pv, err := crypto.LoadFilePV(args.Skey)
	if err != nil {
		return err
	}
	params, err := queryParams(ctx, cli)
	if err != nil {
		return err
	}
	nonce := uint64(args.Nonce)
	if args.Nonce < 0 {
		act, err := queryAccount(ctx, cli, pv.Signer())
		if err != nil {
			return err
		}
		nonce = act.Nonce
	}
	btx, err := tx.NewTx(pv.Signer(), nonce, body)
	if err != nil {
		return err
	}
	if err = btx.Sign(params.ChainId, pv.PrivKey()); err != nil {
		return fmt.Errorf("sign tx: %w", err)
	}
	dat, err := tx.MarshalTx(btx)
	if err != nil {
		return err
	}
	if args.NoSend {
		fmt.Println(hex.EncodeToString(dat))
		return nil
	}
	res, err := cli.BroadcastTxSync(ctx, dat)
	if err != nil {
		return fmt.Errorf("broadcast tx: %w", err)
	}
	out, _ := json.Marshal(res)
	fmt.Println(string(out))
	if res.Code != 0 {
		return fmt.Errorf("tx rejected: code %d (%s) %s", res.Code, res.Codespace, res.Log)
	}
	return nil
}
