package processor

import (
	"errors"

	"kassette.ai/sensedata-sync/sources"
	"kassette.ai/sensedata-sync/sources/sensedata"
)

// fieldSetT collects the flat data of one envelope. The first missing field sticks in err
// and turns every later call into a no-op.
type fieldSetT struct {
	entity sources.EntityT
	index  int
	data   map[string]interface{}
	err    error
}

func newFieldSet(entity sources.EntityT, index int) *fieldSetT {
	return &fieldSetT{entity: entity, index: index, data: make(map[string]interface{})}
}

func (f *fieldSetT) missing(path string) {
	f.err = &MissingFieldError{Entity: f.entity, Index: f.index, Field: path}
}

func (f *fieldSetT) copy(key string, value sensedata.Value) {
	f.copyFrom(key, key, value)
}

func (f *fieldSetT) copyFrom(key, path string, value sensedata.Value) {
	if f.err != nil {
		return
	}
	if value == nil {
		f.missing(path)
		return
	}
	f.data[key] = value
}

// object reports whether a nested object the mapping reads from is there.
func (f *fieldSetT) object(path string, present bool) bool {
	if f.err != nil {
		return false
	}
	if !present {
		f.missing(path)
	}
	return present
}

func (f *fieldSetT) customFields(fields map[string]sensedata.CustomFieldT) {
	if f.err != nil {
		return
	}
	err := FlattenCustomFields(f.data, fields)
	var missing *MissingFieldError
	if errors.As(err, &missing) {
		f.missing(missing.Field)
	}
}

// user flattens an embedded user. sep joins the key parts: "." for customers, "_" for tasks.
func (f *fieldSetT) user(prefix, sep string, user *sensedata.UserT) {
	if !f.object(prefix, user != nil) {
		return
	}
	key := func(name string) string { return prefix + sep + name }
	path := func(name string) string { return prefix + "." + name }

	f.copyFrom(key("id"), path("id"), user.ID)
	f.copyFrom(key("name"), path("name"), user.Name)
	f.copyFrom(key("username"), path("username"), user.Username)
	f.copyFrom(key("email"), path("email"), user.Email)
	if f.object(path("profile"), user.Profile != nil) {
		f.copyFrom(key("profile"+sep+"name"), path("profile.name"), user.Profile.Name)
		f.copyFrom(key("profile"+sep+"role"), path("profile.role"), user.Profile.Role)
	}
	f.copyFrom(key("active"), path("active"), user.Active)
	f.copyFrom(key("registered_on"), path("registered_on"), user.RegisteredOn)
	f.copyFrom(key("created_at"), path("created_at"), user.CreatedAt)
	f.copyFrom(key("updated_at"), path("updated_at"), user.UpdatedAt)
}

func mapContact(f *fieldSetT, contact *sensedata.ContactT) {
	f.copy("id", contact.ID)
	f.copy("id_legacy", contact.IDLegacy)
	if customer := contact.Customer; f.object("customer", customer != nil) {
		f.copyFrom("customer_id", "customer.id", customer.ID)
		f.copyFrom("customer_id_legacy", "customer.id_legacy", customer.IDLegacy)
		f.copyFrom("customer_group", "customer.group", customer.Group)
		f.copyFrom("customer_name_contract", "customer.name_contract", customer.NameContract)
		f.copyFrom("customer_name", "customer.name", customer.Name)
		f.copyFrom("customer_cnpj", "customer.cnpj", customer.Cnpj)
	}
	f.copy("is_main_sponsor", contact.IsMainSponsor)
	f.copy("is_active", contact.IsActive)
	f.copy("name", contact.Name)
	f.copy("nickname", contact.Nickname)
	f.copy("email", contact.Email)
	f.copy("occupation", contact.Occupation)
	f.copy("phone", contact.Phone)
	f.copy("phone2", contact.Phone2)
	f.copy("address", contact.Address)
	f.copy("skype", contact.Skype)
	f.copy("email_unsubscribe", contact.EmailUnsubscribe)
	f.copy("unsubscribe_reason", contact.UnsubscribeReason)
	f.copy("is_favorite", contact.IsFavorite)
	f.copy("obs_info", contact.ObsInfo)

	// only the first type is kept
	if len(contact.Types) > 0 {
		f.copyFrom("types_id", "types.0.id", contact.Types[0].ID)
		f.copyFrom("types_name", "types.0.name", contact.Types[0].Name)
	}
}

func mapCustomer(f *fieldSetT, customer *sensedata.CustomerT) {
	f.copy("id", customer.ID)
	f.copy("id_legacy", customer.IDLegacy)
	f.copy("group", customer.Group)
	f.copy("name_contract", customer.NameContract)
	f.copy("name", customer.Name)
	f.copy("cnpj", customer.Cnpj)
	f.copy("state", customer.State)
	f.copy("city", customer.City)
	f.copy("size", customer.Size)
	f.copy("stage", customer.Stage)
	f.copy("dt_stage", customer.DtStage)
	f.copy("dt_register", customer.DtRegister)
	f.copy("industry", customer.Industry)
	f.copy("salesperson", customer.Salesperson)
	f.copy("sponsor", customer.Sponsor)
	f.copy("sponsor_phone", customer.SponsorPhone)
	f.copy("sponsor_email", customer.SponsorEmail)
	f.copy("dt_cancel", customer.DtCancel)
	f.copy("cancel_tag", customer.CancelTag)
	f.copy("cancel_description", customer.CancelDescription)
	f.copy("created_at", customer.CreatedAt)
	f.copy("updated_at", customer.UpdatedAt)
	if status := customer.Status; f.object("status", status != nil) {
		f.copyFrom("status.id", "status.id", status.ID)
		f.copyFrom("status.description", "status.description", status.Description)
		f.copyFrom("status.enabled", "status.enabled", status.Enabled)
	}
	f.user("cs", ".", customer.Cs)
	f.user("csm", ".", customer.Csm)
	f.customFields(customer.CustomFields)
}

func mapNps(f *fieldSetT, nps *sensedata.NpsT) {
	f.copy("id", nps.ID)
	f.copy("id_legacy", nps.IDLegacy)
	f.copy("id_customer", nps.IDCustomer)
	f.copy("ref_date", nps.RefDate)
	f.copy("survey_date", nps.SurveyDate)
	f.copy("medium", nps.Medium)
	f.copy("respondent", nps.Respondent)
	f.copy("score", nps.Score)
	f.copy("role", nps.Role)
	f.copy("stage", nps.Stage)
	f.copy("group", nps.Group)
	f.copy("category", nps.Category)
	f.copy("nps_status", nps.NpsStatus)
	f.copy("comments", nps.Comments)
	f.copy("tags", nps.Tags)
	f.copy("created_at", nps.CreatedAt)
	f.copy("updated_at", nps.UpdatedAt)
}

func mapTask(f *fieldSetT, task *sensedata.TaskT) {
	f.copy("id", task.ID)
	f.copy("id_legacy", task.IDLegacy)
	f.copy("id_customer", task.IDCustomer)
	f.copy("id_parent", task.IDParent)
	f.copy("id_contact", task.IDContact)
	f.copy("group", task.Group)
	f.copy("description", task.Description)
	f.copy("notes", task.Notes)
	f.copy("start_date", task.StartDate)
	f.copy("due_date", task.DueDate)
	f.copy("end_date", task.EndDate)
	if taskType := task.Type; f.object("type", taskType != nil) {
		f.copyFrom("type_id", "type.id", taskType.ID)
		f.copyFrom("type_description", "type.description", taskType.Description)
		f.copyFrom("type_caption", "type.caption", taskType.Caption)
		f.copyFrom("type_enabled", "type.enabled", taskType.Enabled)
		f.copyFrom("type_is_default", "type.is_default", taskType.IsDefault)
	}
	if status := task.Status; f.object("status", status != nil) {
		f.copyFrom("status_id", "status.id", status.ID)
		f.copyFrom("status_description", "status.description", status.Description)
	}
	if priority := task.Priority; f.object("priority", priority != nil) {
		f.copyFrom("priority_id", "priority.id", priority.ID)
		f.copyFrom("priority_description", "priority.description", priority.Description)
	}
	f.user("owner", "_", task.Owner)
	f.user("created_by", "_", task.CreatedBy)
	f.copy("hours_spent", task.HoursSpent)
	f.copy("hours_planned", task.HoursPlanned)
	f.copy("progress", task.Progress)
	f.copy("id_playbook", task.IDPlaybook)
	f.copy("id_rule", task.IDRule)
	f.copy("tags", task.Tags)
	f.copy("created_at", task.CreatedAt)
	f.copy("system_end_date", task.SystemEndDate)
	f.copy("updated_at", task.UpdatedAt)
	f.copy("custom_value", task.CustomValue)
	f.copy("favorite", task.Favorite)
}
