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
	"context"

	"github.com/erigontech/trieprefetch/common/queue"
	"github.com/erigontech/trieprefetch/execution/state"
)

// NoopExecutorProvider hands out executors that refuse every block.
type NoopExecutorProvider struct{}

var (
	_ ExecutorProvider = NoopExecutorProvider{}
	_ Executor         = NoopExecutorProvider{}
	_ BatchExecutor    = NoopExecutorProvider{}
)

func (p NoopExecutorProvider) Executor(state.StateReader, *queue.Unbounded[*state.HashedPostState]) Executor {
	return p
}

func (p NoopExecutorProvider) BatchExecutor(state.StateReader) BatchExecutor { return p }

func (NoopExecutorProvider) Execute(context.Context, *Block) (*BlockOutput, error) {
	return nil, ErrUnavailableForNoop
}

func (NoopExecutorProvider) ExecuteAndVerifyOne(context.Context, *Block) error {
	return ErrUnavailableForNoop
}

func (NoopExecutorProvider) Finalize() (*Outcome, error) { return nil, ErrUnavailableForNoop }

func (NoopExecutorProvider) SetTip(uint64) {}
