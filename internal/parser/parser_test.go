package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const playerSource = `using UnityEngine;
using System.Collections;
using static UnityEngine.Mathf;

namespace Game.Actors
{
    public class Player : MonoBehaviour, IDamageable
    {
        public float speed = 5f;

        void Start()
        {
        }

        void Update()
        {
            transform.Translate(Vector3.forward * speed * Time.deltaTime);
        }

        public void TakeDamage(int amount)
        {
            int Clamp(int v) { return v; }
        }

        private struct State
        {
            public int Health;
            public void Reset() { Health = 0; }
        }
    }

    public interface IDamageable
    {
        void TakeDamage(int amount);
    }

    public enum Team { Red, Blue }
}
`

func parse(t *testing.T, name, src string) *Tree {
	t.Helper()
	tree, err := NewParser().Parse(name, []byte(src))
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return tree
}

func TestParseCSharpFile(t *testing.T) {
	tree := parse(t, "Player.cs", playerSource)
	assert.NotNil(t, tree.RootNode())
	assert.False(t, tree.HasErrors())
}

func TestParseUppercaseExtension(t *testing.T) {
	tree := parse(t, "Player.CS", "class A {}")
	assert.NotNil(t, tree.RootNode())
}

func TestParseUnknownExtension(t *testing.T) {
	_, err := NewParser().Parse("file.py", []byte(`print("x")`))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unsupported"),
		"error should contain 'unsupported', got: %s", err.Error())
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("a.cs"))
	assert.True(t, Supported("dir/B.CS"))
	assert.False(t, Supported("a.js"))
	assert.False(t, Supported("noext"))
}

func TestImports(t *testing.T) {
	tree := parse(t, "Player.cs", playerSource)
	assert.Equal(t, []string{"UnityEngine", "System.Collections", "UnityEngine.Mathf"}, tree.Imports())
}

func TestFunctions(t *testing.T) {
	tree := parse(t, "Player.cs", playerSource)

	var names []string
	for _, f := range tree.Functions() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"Start", "Update", "TakeDamage", "Clamp", "Reset", "TakeDamage"}, names)

	start := tree.Functions()[0]
	assert.Equal(t, 11, start.StartLine)
	assert.Equal(t, 13, start.EndLine)
}

func TestTypes(t *testing.T) {
	tree := parse(t, "Player.cs", playerSource)
	types := tree.Types()
	require.Len(t, types, 4)

	player := types[0]
	assert.Equal(t, "class", player.Kind)
	assert.Equal(t, "Player", player.Name)
	assert.Equal(t, "Game.Actors", player.Namespace)
	assert.Equal(t, []string{"MonoBehaviour", "IDamageable"}, player.Bases)
	var methods []string
	for _, m := range player.Methods {
		methods = append(methods, m.Name)
	}
	assert.Equal(t, []string{"Start", "Update", "TakeDamage"}, methods, "local functions and nested type methods are excluded")

	state := types[1]
	assert.Equal(t, "struct", state.Kind)
	assert.Equal(t, "State", state.Name)
	require.Len(t, state.Methods, 1)
	assert.Equal(t, "Reset", state.Methods[0].Name)

	assert.Equal(t, "interface", types[2].Kind)
	assert.Equal(t, "IDamageable", types[2].Name)
	assert.Equal(t, "enum", types[3].Kind)
	assert.Equal(t, "Team", types[3].Name)
	assert.Empty(t, types[3].Bases)
}

func TestTypesWithoutNamespace(t *testing.T) {
	tree := parse(t, "Thing.cs", "public class Thing { public Thing() {} }")
	types := tree.Types()
	require.Len(t, types, 1)
	assert.Empty(t, types[0].Namespace)
	require.Len(t, types[0].Methods, 1)
	assert.Equal(t, "Thing", types[0].Methods[0].Name)
}

func TestBrokenSourceStillParses(t *testing.T) {
	tree := parse(t, "Broken.cs", "public class Broken { void Update( { }")
	assert.True(t, tree.HasErrors())
}

func TestExtractUsing(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"using UnityEngine;", "UnityEngine"},
		{"using static UnityEngine.Mathf;", "UnityEngine.Mathf"},
		{"using Vec = UnityEngine.Vector3;", "UnityEngine.Vector3"},
		{"global using System;", "System"},
		{"using ;", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractUsing(tt.in), tt.in)
	}
}
