package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		p := filepath.Join("..", "..", "schemas", name)
		s, err := jsonschema.Compile(p)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	helloSchema := compile("hello.schema.json")
	welcomeSchema := compile("welcome.schema.json")
	obsSchema := compile("obs.schema.json")
	actSchema := compile("act.schema.json")

	var hello any
	_ = json.Unmarshal([]byte(`{
	  "type":"HELLO",
	  "protocol_version":"0.4",
	  "faction_id":"EXPLORER",
	  "name":"player1"
	}`), &hello)
	validate(helloSchema, hello)

	var welcome any
	_ = json.Unmarshal([]byte(`{
	  "type":"WELCOME",
	  "protocol_version":"0.4",
	  "faction_id":"EXPLORER",
	  "session_token":"9b2d7c1e-52f0-4e51-9c0a-0f6f1a2b3c4d",
	  "params":{
	    "clips_per_turn":20,
	    "depths":3,
	    "width":48,
	    "height":32,
	    "seed":1337,
	    "content_digest":"deadbeef"
	  }
	}`), &welcome)
	validate(welcomeSchema, welcome)

	var obs any
	_ = json.Unmarshal([]byte(`{
	  "type":"OBS",
	  "protocol_version":"0.4",
	  "turn":4,
	  "clip":81,
	  "actor_id":"A3",
	  "level":1,
	  "self":{"id":"A3","kind":"HERO","faction":"EXPLORER","pos":[5,7],"hp":20,"calm":50,"leader":true},
	  "visible_tiles":[{"pos":[5,7],"tile":"FLOOR"},{"pos":[6,7],"tile":"DOOR_CLOSED"}],
	  "visible_actors":[{"id":"A9","kind":"GRUNT","faction":"HORDE","pos":[8,7]}]
	}`), &obs)
	validate(obsSchema, obs)

	var act any
	_ = json.Unmarshal([]byte(`{
	  "type":"ACT",
	  "protocol_version":"0.4",
	  "actor_id":"A3",
	  "request":{"kind":"PROJECT","x":8,"y":7,"eps":0,"item":"ROCK_SHARD","from":"PACK"}
	}`), &act)
	validate(actSchema, act)

	var badAct any
	_ = json.Unmarshal([]byte(`{
	  "type":"ACT",
	  "protocol_version":"0.4",
	  "actor_id":"A3",
	  "request":{"kind":"TELEPORT"}
	}`), &badAct)
	if err := actSchema.Validate(badAct); err == nil {
		t.Fatalf("unknown request kind passed validation")
	}
}
