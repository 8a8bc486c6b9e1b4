// Copyright 2025 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

package exec

import (
	"fmt"

	"github.com/erigontech/trieprefetch/common"
	"github.com/erigontech/trieprefetch/execution/state"
)

// SystemAddress collects transaction fees during a block.
var SystemAddress = common.HexToAddress("0xfffffffffffffffffffffffffffffffffffffffe")

// AddBlockReward moves the balance collected at SystemAddress to the coinbase.
func AddBlockReward(db *state.CacheDB, coinbase common.Address) error {
	sys, err := db.LoadAccount(SystemAddress)
	if err != nil {
		return fmt.Errorf("load system account: %w", err)
	}
	if sys.Info.Balance.IsZero() {
		return nil
	}
	reward := sys.Info.Balance
	sys.Info.Balance.Clear()
	sys.Touch()

	validator, err := db.LoadAccount(coinbase)
	if err != nil {
		return fmt.Errorf("load validator account: %w", err)
	}
	validator.Touch()
	validator.AddBalance(&reward)
	return nil
}

// UpgradeSystemContracts installs contracts when the upgrade is due at this
// point of the block: before the system transactions unless lateUpgrade is
// set, after them otherwise.
func UpgradeSystemContracts(db *state.CacheDB, contracts map[common.Address][]byte, beforeSystemTx, lateUpgrade bool) error {
	if beforeSystemTx == lateUpgrade {
		return nil
	}
	for address, code := range contracts {
		acc, err := db.LoadAccount(address)
		if err != nil {
			return fmt.Errorf("load system contract %x: %w", address, err)
		}
		acc.Touch()
		acc.SetCode(code)
	}
	return nil
}
