package worker

import "context"

func (w *StaffRefreshWorker) RefreshForTest(ctx context.Context) error {
	return w.refresh(ctx)
}
