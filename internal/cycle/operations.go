package cycle

import "seedprocure-backend/internal/models"

// Operation is one named transition: the statuses it may start from and the
// status it leaves behind. An empty To keeps the current status.
type Operation struct {
	Name          string
	From          []models.CycleStatus
	To            models.CycleStatus
	RequiresActor bool
	// Guard is an extra SQL condition ANDed into the conditional update.
	Guard string
}

func (op Operation) accepts(s models.CycleStatus) bool {
	for _, f := range op.From {
		if f == s {
			return true
		}
	}
	return false
}

var prePriced = []models.CycleStatus{
	models.CycleGrowing,
	models.CycleHarvested,
	models.CycleSampleCollected,
	models.CycleSampled,
	models.CyclePriceProposed,
}

var (
	OpMarkHarvested = Operation{
		Name:          "mark_harvested",
		From:          []models.CycleStatus{models.CycleGrowing},
		To:            models.CycleHarvested,
		RequiresActor: true,
	}
	OpMarkSampleReceived = Operation{
		Name:          "mark_sample_received",
		From:          []models.CycleStatus{models.CycleHarvested},
		To:            models.CycleSampleCollected,
		RequiresActor: true,
	}
	OpRecordSample = Operation{
		Name: "record_sample",
		From: []models.CycleStatus{models.CycleSampleCollected},
		To:   models.CycleSampled,
	}
	OpRecordSampleWithPrice = Operation{
		Name: "record_sample",
		From: []models.CycleStatus{models.CycleSampleCollected},
		To:   models.CyclePriceProposed,
	}
	OpSetTemporaryPrice = Operation{
		Name: "set_temporary_price",
		From: prePriced,
		To:   models.CyclePriceProposed,
	}
	OpFinalizePrice = Operation{
		Name: "finalize_price",
		From: []models.CycleStatus{models.CycleSampled, models.CyclePriceProposed, models.CyclePriced},
		To:   models.CyclePriced,
	}
	OpRecordWeighing = Operation{
		Name:          "record_weighing",
		From:          []models.CycleStatus{models.CyclePriced},
		To:            models.CycleWeighed,
		RequiresActor: true,
	}
	OpAllocate = Operation{
		Name:  "allocate",
		From:  []models.CycleStatus{models.CycleWeighed},
		To:    models.CycleLoaded,
		Guard: "shipment_id IS NULL",
	}
	OpDispatch = Operation{
		Name: "dispatch",
		From: []models.CycleStatus{models.CycleLoaded},
		To:   models.CycleDispatched,
	}
	OpDispatchPaid = Operation{
		Name: "dispatch",
		From: []models.CycleStatus{models.CycleLoaded},
		To:   models.CycleCompleted,
	}
	OpSchedulePayment = Operation{
		Name: "schedule_payment",
		From: []models.CycleStatus{models.CycleWeighed, models.CycleLoading, models.CycleLoaded, models.CycleDispatched},
	}
	OpMarkFarmerPaid = Operation{
		Name:          "mark_farmer_paid",
		From:          []models.CycleStatus{models.CycleWeighed, models.CycleLoading, models.CycleLoaded},
		RequiresActor: true,
		Guard:         "(is_farmer_paid IS NULL OR is_farmer_paid = false)",
	}
	OpSettlePayment = Operation{
		Name:          "mark_farmer_paid",
		From:          []models.CycleStatus{models.CycleDispatched},
		To:            models.CycleCompleted,
		RequiresActor: true,
		Guard:         "(is_farmer_paid IS NULL OR is_farmer_paid = false)",
	}
)

// Catalog lists every operation the service performs.
var Catalog = []Operation{
	OpMarkHarvested,
	OpMarkSampleReceived,
	OpRecordSample,
	OpRecordSampleWithPrice,
	OpSetTemporaryPrice,
	OpFinalizePrice,
	OpRecordWeighing,
	OpAllocate,
	OpDispatch,
	OpDispatchPaid,
	OpSchedulePayment,
	OpMarkFarmerPaid,
	OpSettlePayment,
}
