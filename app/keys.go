package app

import (
	oracletypes "github.com/xydata/oracle/x/oracle/types"
)

// Store keys mounted on the application multistore
const (
	AccountStoreKey = "acc"
	BankStoreKey    = "bank"
	TxLogStoreKey   = "txlog"
)

var storeKeys = []string{
	oracletypes.StoreKey,
	AccountStoreKey,
	BankStoreKey,
	TxLogStoreKey,
}
