package processor

import "strings"

const npsFixture = `{
  "id": 1,
  "id_legacy": "internal-tes",
  "id_customer": 277,
  "ref_date": "2019-10-28T00:00:00",
  "survey_date": "2019-10-28T00:00:00",
  "medium": "tes@gmail.com",
  "respondent": "test",
  "score": 7,
  "role": "SUPER_ADMIN",
  "stage": "",
  "group": "",
  "category": "",
  "nps_status": "neutral",
  "comments": "",
  "tags": "",
  "created_at": "2020-09-26T01:00:02.371497",
  "updated_at": ""
}`

const userFixture = `{
  "id": 3,
  "name": "Hariosvaldo",
  "username": "hariosvaldo.empresa",
  "email": "hariosvaldo@empresa.com",
  "profile": {"name": "Viewer", "role": "viewer"},
  "active": true,
  "registered_on": "2021-02-26T10:03:00Z",
  "created_at": "2021-02-24T00:00:00Z",
  "updated_at": "2021-02-27T10:35:00Z"
}`

const taskFixture = `{
  "id": 20,
  "id_legacy": "ATIV-0001",
  "id_customer": 2,
  "id_parent": 19,
  "id_contact": 435,
  "group": "G02",
  "description": "Ligar para cliente",
  "notes": "Ligar para o telefone +55123456789",
  "start_date": "2021-03-14",
  "due_date": "2021-03-21",
  "end_date": "2021-03-18T10:00:00Z",
  "type": {"id": 2545, "description": "meeting", "caption": "Reunião", "enabled": true, "is_default": true},
  "status": {"id": 2545, "description": "Concluída"},
  "priority": {"id": 2545, "description": "Alta"},
  "owner": ` + userFixture + `,
  "created_by": ` + userFixture + `,
  "hours_spent": 2,
  "hours_planned": 3,
  "progress": 100,
  "id_playbook": 2,
  "id_rule": 15,
  "tags": "contato",
  "created_at": "2020-03-19T00:00:00Z",
  "system_end_date": "2021-03-18T13:00:00Z",
  "updated_at": "2020-03-19T00:00:00Z",
  "custom_value": 15,
  "favorite": true,
  "custom_fields": {"origem": {"value": "Playbook"}}
}`

const customerFixture = `{
  "id": 2,
  "id_legacy": "L0001",
  "group": "Grupo ABC",
  "name_contract": "Ardidas SA",
  "name": "Ardidas",
  "cnpj": "23.435.123/0001-23",
  "status": {"id": 1, "description": "Em vigência", "enabled": true},
  "sponsor": "",
  "sponsor_phone": "",
  "sponsor_email": "",
  "state": "BA",
  "city": "Itú",
  "size": "Grande",
  "stage": "Adoção",
  "dt_stage": "2020-02-14",
  "dt_register": "2020-03-01",
  "industry": "Tecidos",
  "salesperson": "Juliana",
  "cs": ` + userFixture + `,
  "csm": ` + userFixture + `,
  "dt_cancel": "2021-03-01",
  "cancel_tag": "Pausa,Bom relacionamento",
  "cancel_description": "Pausa no projeto",
  "badge": {},
  "created_at": "2020-03-02",
  "updated_at": "2020-01-01T00:00:00Z",
  "custom_fields": {"vertical": {"value": "Eletrônicos"}}
}`

const contactFixture = `{
  "id": 16,
  "id_legacy": "0006",
  "customer": {
    "id": 2,
    "id_legacy": "L0001",
    "group": "Grupo ABC",
    "name_contract": "Ardidas SA",
    "name": "Ardidas",
    "cnpj": "23.435.123/0001-23"
  },
  "is_main_sponsor": true,
  "is_active": true,
  "name": "John",
  "nickname": "John John",
  "email": "contato@mymail.com",
  "occupation": "Gerente",
  "types": [{"id": 1, "name": "Viewer"}],
  "phone": "+551154329877",
  "phone2": "+5511984543234",
  "address": "Rua Jurubatuba, 1043",
  "skype": "john.john@skype.com",
  "email_unsubscribe": false,
  "unsubscribe_reason": "Não quer receber e-mails",
  "is_favorite": false,
  "obs_info": "Contatar após as 14h",
  "custom_fields": {"setor": {"value": "TI"}},
  "updated_at": "2020-01-01T00:00:00Z"
}`

// data key -> source path, as listed in the field tables
var userKeys = []string{"id", "name", "username", "email", "profile.name", "profile.role", "active", "registered_on", "created_at", "updated_at"}

func fieldTable(entity string) map[string]string {
	table := make(map[string]string)
	flat := func(keys ...string) {
		for _, key := range keys {
			table[key] = key
		}
	}
	nested := func(prefix, sep string, keys ...string) {
		for _, key := range keys {
			table[prefix+sep+strings.ReplaceAll(key, ".", sep)] = prefix + "." + key
		}
	}
	switch entity {
	case "contacts":
		flat("id", "id_legacy", "is_main_sponsor", "is_active", "name", "nickname", "email", "occupation",
			"phone", "phone2", "address", "skype", "email_unsubscribe", "unsubscribe_reason", "is_favorite", "obs_info")
		nested("customer", "_", "id", "id_legacy", "group", "name_contract", "name", "cnpj")
		table["types_id"] = "types.0.id"
		table["types_name"] = "types.0.name"
	case "customers":
		flat("id", "id_legacy", "group", "name_contract", "name", "cnpj", "state", "city", "size", "stage",
			"dt_stage", "dt_register", "industry", "salesperson", "sponsor", "sponsor_phone", "sponsor_email",
			"dt_cancel", "cancel_tag", "cancel_description", "created_at", "updated_at")
		nested("status", ".", "id", "description", "enabled")
		nested("cs", ".", userKeys...)
		nested("csm", ".", userKeys...)
	case "nps":
		flat("id", "id_legacy", "id_customer", "ref_date", "survey_date", "medium", "respondent", "score", "role",
			"stage", "group", "category", "nps_status", "comments", "tags", "created_at", "updated_at")
	case "tasks":
		flat("id", "id_legacy", "id_customer", "id_parent", "id_contact", "group", "description", "notes",
			"start_date", "due_date", "end_date", "hours_spent", "hours_planned", "progress", "id_playbook",
			"id_rule", "tags", "created_at", "system_end_date", "updated_at", "custom_value", "favorite")
		nested("type", "_", "id", "description", "caption", "enabled", "is_default")
		nested("status", "_", "id", "description")
		nested("priority", "_", "id", "description")
		nested("owner", "_", userKeys...)
		nested("created_by", "_", userKeys...)
	}
	return table
}
