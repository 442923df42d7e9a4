package usecase

import "time"

func SetStaleProvisioningAfter(uc *DispatchUseCase, d time.Duration) {
	uc.staleAfter = d
}
