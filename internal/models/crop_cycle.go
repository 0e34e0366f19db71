package models

import "time"

type CycleStatus string

const (
	CycleGrowing         CycleStatus = "growing"
	CycleHarvested       CycleStatus = "harvested"
	CycleSampleCollected CycleStatus = "sample_collected"
	CycleSampled         CycleStatus = "sampled"
	CyclePriceProposed   CycleStatus = "price_proposed"
	CyclePriced          CycleStatus = "priced"
	CycleWeighed         CycleStatus = "weighed"
	CycleLoading         CycleStatus = "loading"
	CycleLoaded          CycleStatus = "loaded"
	CycleDispatched      CycleStatus = "dispatched"
	CycleCompleted       CycleStatus = "completed"
	// CycleShipped is a terminal alias kept for rows imported from older
	// records. Nothing in this service writes it.
	CycleShipped CycleStatus = "shipped"
)

type CollectionMethod string

const (
	CollectionPoint CollectionMethod = "collection_point"
	CollectionYard  CollectionMethod = "yard"
)

// CropCycle: one farmer's engagement for one seed variety in one season.
type CropCycle struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	FarmerID      uint        `gorm:"index;not null" json:"farmer_id"`
	Farmer        Farmer      `json:"-"`
	FarmID        *uint       `json:"farm_id"`
	SeedVarietyID uint        `gorm:"index;not null" json:"seed_variety_id"`
	SeedVariety   SeedVariety `json:"-"`
	Status        CycleStatus `gorm:"size:30;index;not null" json:"status"`
	CropCycleYear int         `gorm:"index;not null" json:"crop_cycle_year"`

	SowingDate            *time.Time       `json:"sowing_date"`
	HarvestingDate        *time.Time       `json:"harvesting_date"`
	GoodsCollectionMethod CollectionMethod `gorm:"size:30" json:"goods_collection_method"`
	HarvestedBy           *uint            `json:"harvested_by"`

	SampleCollectionDate *time.Time `json:"sample_collection_date"`
	SampledBy            *uint      `json:"sampled_by"`

	// Lab results, written together by a single sample entry.
	SamplingDate   *time.Time `json:"sampling_date"`
	Moisture       *float64   `json:"moisture"`
	Purity         *float64   `json:"purity"`
	DustPercentage *float64   `json:"dust_percentage"`
	ColorGrade     string     `gorm:"size:50" json:"color_grade"`
	NonSeed        string     `gorm:"size:255" json:"non_seed"`
	Remarks        string     `gorm:"size:255" json:"remarks"`

	// Prices are per man.
	TemporaryPricePerMan *float64   `json:"temporary_price_per_man"`
	PurchaseRate         *float64   `json:"purchase_rate"`
	PricingDate          *time.Time `gorm:"index" json:"pricing_date"`

	QuantityInBags int        `gorm:"not null;default:0" json:"quantity_in_bags"`
	LotNo          string     `gorm:"size:50;index" json:"lot_no"`
	WeighingDate   *time.Time `json:"weighing_date"`
	WeighedBy      *uint      `json:"weighed_by"`

	ShipmentID   *uint      `gorm:"index" json:"shipment_id"`
	LoadingDate  *time.Time `json:"loading_date"`
	DispatchDate *time.Time `json:"dispatch_date"`

	IsFarmerPaid  *bool      `json:"is_farmer_paid"`
	ChequeDueDate *time.Time `gorm:"index" json:"cheque_due_date"`
	FinalPayment  *float64   `json:"final_payment"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
