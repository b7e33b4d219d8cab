package sensedata

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// Value is a scalar leaf kept exactly as the API sent it. A nil Value means the key was absent,
// a JSON null is kept as the literal null.
type Value = json.RawMessage

var ErrNotObject = errors.New("record is not a JSON object")

type ProfileT struct {
	Name Value
	Role Value
}

// UserT is a Sensedata user as embedded in customers (cs, csm) and tasks (owner, created_by).
type UserT struct {
	ID           Value
	Name         Value
	Username     Value
	Email        Value
	Profile      *ProfileT
	Active       Value
	RegisteredOn Value
	CreatedAt    Value
	UpdatedAt    Value
}

type StatusT struct {
	ID          Value
	Description Value
	Enabled     Value
}

type PriorityT struct {
	ID          Value
	Description Value
}

type CustomFieldT struct {
	Value Value
}

// CustomerRefT is the short customer embedded in a contact.
type CustomerRefT struct {
	ID           Value
	IDLegacy     Value
	Group        Value
	NameContract Value
	Name         Value
	Cnpj         Value
}

type ContactTypeT struct {
	ID   Value
	Name Value
}

type ContactT struct {
	ID                Value
	IDLegacy          Value
	Customer          *CustomerRefT
	IsMainSponsor     Value
	IsActive          Value
	Name              Value
	Nickname          Value
	Email             Value
	Occupation        Value
	Types             []ContactTypeT
	Phone             Value
	Phone2            Value
	Address           Value
	Skype             Value
	EmailUnsubscribe  Value
	UnsubscribeReason Value
	IsFavorite        Value
	ObsInfo           Value
	CustomFields      map[string]CustomFieldT
	UpdatedAt         Value
}

type CustomerT struct {
	ID                Value
	IDLegacy          Value
	Group             Value
	NameContract      Value
	Name              Value
	Cnpj              Value
	Status            *StatusT
	Sponsor           Value
	SponsorPhone      Value
	SponsorEmail      Value
	State             Value
	City              Value
	Size              Value
	Stage             Value
	DtStage           Value
	DtRegister        Value
	Industry          Value
	Salesperson       Value
	Cs                *UserT
	Csm               *UserT
	DtCancel          Value
	CancelTag         Value
	CancelDescription Value
	Badge             Value
	CreatedAt         Value
	UpdatedAt         Value
	CustomFields      map[string]CustomFieldT
}

type NpsT struct {
	ID         Value
	IDLegacy   Value
	IDCustomer Value
	RefDate    Value
	SurveyDate Value
	Medium     Value
	Respondent Value
	Score      Value
	Role       Value
	Stage      Value
	Group      Value
	Category   Value
	NpsStatus  Value
	Comments   Value
	Tags       Value
	CreatedAt  Value
	UpdatedAt  Value
}

type TaskTypeT struct {
	ID          Value
	Description Value
	Caption     Value
	Enabled     Value
	IsDefault   Value
}

type TaskT struct {
	ID            Value
	IDLegacy      Value
	IDCustomer    Value
	IDParent      Value
	IDContact     Value
	Group         Value
	Description   Value
	Notes         Value
	StartDate     Value
	DueDate       Value
	EndDate       Value
	Type          *TaskTypeT
	Status        *StatusT
	Priority      *PriorityT
	Owner         *UserT
	CreatedBy     *UserT
	HoursSpent    Value
	HoursPlanned  Value
	Progress      Value
	IDPlaybook    Value
	IDRule        Value
	Tags          Value
	CreatedAt     Value
	SystemEndDate Value
	UpdatedAt     Value
	CustomValue   Value
	Favorite      Value
	CustomFields  map[string]CustomFieldT
}

// value looks key up with an exact, case-sensitive match and keeps its raw JSON.
func value(obj gjson.Result, key string) Value {
	field := obj.Get(key)
	if !field.Exists() {
		return nil
	}
	return Value(field.Raw)
}

func parseObject(raw []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, errors.New("record is not valid JSON")
	}
	obj := gjson.ParseBytes(raw)
	if !obj.IsObject() {
		return gjson.Result{}, ErrNotObject
	}
	return obj, nil
}

// decoderT reads nested parts of a record. The first shape error sticks.
type decoderT struct {
	err error
}

func (d *decoderT) fail(format string, args ...interface{}) {
	if d.err == nil {
		d.err = fmt.Errorf(format, args...)
	}
}

// object returns the object under key, ok is false when it is absent or null.
func (d *decoderT) object(parent gjson.Result, key string) (gjson.Result, bool) {
	field := parent.Get(key)
	if !field.Exists() || field.Type == gjson.Null {
		return field, false
	}
	if !field.IsObject() {
		d.fail("field %q is not a JSON object", key)
		return field, false
	}
	return field, true
}

func (d *decoderT) user(parent gjson.Result, key string) *UserT {
	obj, ok := d.object(parent, key)
	if !ok {
		return nil
	}
	user := &UserT{
		ID:           value(obj, "id"),
		Name:         value(obj, "name"),
		Username:     value(obj, "username"),
		Email:        value(obj, "email"),
		Active:       value(obj, "active"),
		RegisteredOn: value(obj, "registered_on"),
		CreatedAt:    value(obj, "created_at"),
		UpdatedAt:    value(obj, "updated_at"),
	}
	if profile, ok := d.object(obj, "profile"); ok {
		user.Profile = &ProfileT{Name: value(profile, "name"), Role: value(profile, "role")}
	}
	return user
}

func (d *decoderT) status(parent gjson.Result) *StatusT {
	obj, ok := d.object(parent, "status")
	if !ok {
		return nil
	}
	return &StatusT{
		ID:          value(obj, "id"),
		Description: value(obj, "description"),
		Enabled:     value(obj, "enabled"),
	}
}

// contactTypes is empty when types is absent, null or [].
func (d *decoderT) contactTypes(parent gjson.Result) []ContactTypeT {
	field := parent.Get("types")
	if !field.Exists() || field.Type == gjson.Null {
		return nil
	}
	if !field.IsArray() {
		d.fail(`field "types" is not a JSON array`)
		return nil
	}
	var types []ContactTypeT
	field.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			d.fail(`field "types" holds a value that is not a JSON object`)
			return false
		}
		types = append(types, ContactTypeT{ID: value(item, "id"), Name: value(item, "name")})
		return true
	})
	return types
}

// customFields is nil when custom_fields is absent, null or an empty list, which is how the
// API sends a record without custom fields.
func (d *decoderT) customFields(parent gjson.Result) map[string]CustomFieldT {
	field := parent.Get("custom_fields")
	switch {
	case !field.Exists() || field.Type == gjson.Null:
		return nil
	case field.IsArray() && len(field.Array()) == 0:
		return nil
	case !field.IsObject():
		d.fail(`field "custom_fields" is not a JSON object`)
		return nil
	}
	fields := make(map[string]CustomFieldT)
	field.ForEach(func(name, item gjson.Result) bool {
		if !item.IsObject() {
			d.fail("custom field %q is not a JSON object", name.String())
			return false
		}
		fields[name.String()] = CustomFieldT{Value: value(item, "value")}
		return true
	})
	return fields
}

func DecodeContact(raw []byte) (*ContactT, error) {
	obj, err := parseObject(raw)
	if err != nil {
		return nil, err
	}
	var d decoderT
	contact := &ContactT{
		ID:                value(obj, "id"),
		IDLegacy:          value(obj, "id_legacy"),
		IsMainSponsor:     value(obj, "is_main_sponsor"),
		IsActive:          value(obj, "is_active"),
		Name:              value(obj, "name"),
		Nickname:          value(obj, "nickname"),
		Email:             value(obj, "email"),
		Occupation:        value(obj, "occupation"),
		Types:             d.contactTypes(obj),
		Phone:             value(obj, "phone"),
		Phone2:            value(obj, "phone2"),
		Address:           value(obj, "address"),
		Skype:             value(obj, "skype"),
		EmailUnsubscribe:  value(obj, "email_unsubscribe"),
		UnsubscribeReason: value(obj, "unsubscribe_reason"),
		IsFavorite:        value(obj, "is_favorite"),
		ObsInfo:           value(obj, "obs_info"),
		CustomFields:      d.customFields(obj),
		UpdatedAt:         value(obj, "updated_at"),
	}
	if customer, ok := d.object(obj, "customer"); ok {
		contact.Customer = &CustomerRefT{
			ID:           value(customer, "id"),
			IDLegacy:     value(customer, "id_legacy"),
			Group:        value(customer, "group"),
			NameContract: value(customer, "name_contract"),
			Name:         value(customer, "name"),
			Cnpj:         value(customer, "cnpj"),
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	return contact, nil
}

func DecodeCustomer(raw []byte) (*CustomerT, error) {
	obj, err := parseObject(raw)
	if err != nil {
		return nil, err
	}
	var d decoderT
	customer := &CustomerT{
		ID:                value(obj, "id"),
		IDLegacy:          value(obj, "id_legacy"),
		Group:             value(obj, "group"),
		NameContract:      value(obj, "name_contract"),
		Name:              value(obj, "name"),
		Cnpj:              value(obj, "cnpj"),
		Status:            d.status(obj),
		Sponsor:           value(obj, "sponsor"),
		SponsorPhone:      value(obj, "sponsor_phone"),
		SponsorEmail:      value(obj, "sponsor_email"),
		State:             value(obj, "state"),
		City:              value(obj, "city"),
		Size:              value(obj, "size"),
		Stage:             value(obj, "stage"),
		DtStage:           value(obj, "dt_stage"),
		DtRegister:        value(obj, "dt_register"),
		Industry:          value(obj, "industry"),
		Salesperson:       value(obj, "salesperson"),
		Cs:                d.user(obj, "cs"),
		Csm:               d.user(obj, "csm"),
		DtCancel:          value(obj, "dt_cancel"),
		CancelTag:         value(obj, "cancel_tag"),
		CancelDescription: value(obj, "cancel_description"),
		Badge:             value(obj, "badge"),
		CreatedAt:         value(obj, "created_at"),
		UpdatedAt:         value(obj, "updated_at"),
		CustomFields:      d.customFields(obj),
	}
	if d.err != nil {
		return nil, d.err
	}
	return customer, nil
}

func DecodeNps(raw []byte) (*NpsT, error) {
	obj, err := parseObject(raw)
	if err != nil {
		return nil, err
	}
	return &NpsT{
		ID:         value(obj, "id"),
		IDLegacy:   value(obj, "id_legacy"),
		IDCustomer: value(obj, "id_customer"),
		RefDate:    value(obj, "ref_date"),
		SurveyDate: value(obj, "survey_date"),
		Medium:     value(obj, "medium"),
		Respondent: value(obj, "respondent"),
		Score:      value(obj, "score"),
		Role:       value(obj, "role"),
		Stage:      value(obj, "stage"),
		Group:      value(obj, "group"),
		Category:   value(obj, "category"),
		NpsStatus:  value(obj, "nps_status"),
		Comments:   value(obj, "comments"),
		Tags:       value(obj, "tags"),
		CreatedAt:  value(obj, "created_at"),
		UpdatedAt:  value(obj, "updated_at"),
	}, nil
}

func DecodeTask(raw []byte) (*TaskT, error) {
	obj, err := parseObject(raw)
	if err != nil {
		return nil, err
	}
	var d decoderT
	task := &TaskT{
		ID:            value(obj, "id"),
		IDLegacy:      value(obj, "id_legacy"),
		IDCustomer:    value(obj, "id_customer"),
		IDParent:      value(obj, "id_parent"),
		IDContact:     value(obj, "id_contact"),
		Group:         value(obj, "group"),
		Description:   value(obj, "description"),
		Notes:         value(obj, "notes"),
		StartDate:     value(obj, "start_date"),
		DueDate:       value(obj, "due_date"),
		EndDate:       value(obj, "end_date"),
		Status:        d.status(obj),
		Owner:         d.user(obj, "owner"),
		CreatedBy:     d.user(obj, "created_by"),
		HoursSpent:    value(obj, "hours_spent"),
		HoursPlanned:  value(obj, "hours_planned"),
		Progress:      value(obj, "progress"),
		IDPlaybook:    value(obj, "id_playbook"),
		IDRule:        value(obj, "id_rule"),
		Tags:          value(obj, "tags"),
		CreatedAt:     value(obj, "created_at"),
		SystemEndDate: value(obj, "system_end_date"),
		UpdatedAt:     value(obj, "updated_at"),
		CustomValue:   value(obj, "custom_value"),
		Favorite:      value(obj, "favorite"),
		CustomFields:  d.customFields(obj),
	}
	if taskType, ok := d.object(obj, "type"); ok {
		task.Type = &TaskTypeT{
			ID:          value(taskType, "id"),
			Description: value(taskType, "description"),
			Caption:     value(taskType, "caption"),
			Enabled:     value(taskType, "enabled"),
			IsDefault:   value(taskType, "is_default"),
		}
	}
	if priority, ok := d.object(obj, "priority"); ok {
		task.Priority = &PriorityT{ID: value(priority, "id"), Description: value(priority, "description")}
	}
	if d.err != nil {
		return nil, d.err
	}
	return task, nil
}
