package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

const navbar = `<nav class="navbar">
    <div class="nav-brand">
        <h2>🤖 <%= client.user.tag %></h2>
    </div>
    <div class="nav-links">
        <a href="/" class="active">Dashboard</a>
        <a href="/messages">Messages</a>
        <a href="/logout" class="logout">Logout</a>
    </div>
</nav>`

func TestMask(t *testing.T) {
	in := `<h2><%= client.user.tag %></h2><% if (x) { %><b>y</b><% } %>`
	m := Mask(in)

	assert.Len(t, m.Directives, 3, "should capture every directive")
	assert.NotContains(t, m.Text, "<%", "masked text should not contain directives")
	assert.Equal(t, in, m.Unmask(m.Text), "unmask should restore the original")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		wantErr  bool
	}{
		{name: "navbar", fragment: navbar},
		{name: "void_elements", fragment: `<div><img src="<%= user.avatar %>" alt="a"><br><hr/></div>`},
		{name: "html_entities", fragment: `<p>a&nbsp;b &copy;</p>`},
		{name: "bare_ampersand", fragment: `<p>Tom & Jerry</p>`},
		{name: "boolean_attribute", fragment: `<nav><button disabled>x</button><input type=checkbox checked></nav>`},
		{name: "single_quoted", fragment: `<a href='/' class='nav'>x</a>`},
		{name: "inline_script", fragment: `<nav><script>if (a < b && c) { el.innerHTML = "<b>x</b>"; }</script></nav>`},
		{name: "inline_style", fragment: `<style>nav > a { color: red; }</style><nav></nav>`},
		{name: "comment", fragment: `<nav><!-- <a href="/old"> --></nav>`},
		{name: "multiple_roots", fragment: `<a href="/">x</a><a href="/y">y</a>`},
		{name: "plain_text", fragment: `just text`},
		{name: "unclosed", fragment: `<nav><div></nav>`, wantErr: true},
		{name: "stray_end", fragment: `</div>`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.fragment)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "parsing markup")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestExtractElement(t *testing.T) {
	page := `<html><head><style>.navbar{}</style></head>
<body>
<nav class="breadcrumbs"><a href="/">home</a></nav>
<nav class="navbar sticky">
  <nav class="inner"><a href="/x">x</a></nav>
  <a href="/"><%= title %></a>
</nav>
<main></main>
</body></html>`

	got, err := ExtractElement(page, "nav", "navbar")
	require.NoError(t, err)
	assert.Equal(t, `<nav class="navbar sticky">
  <nav class="inner"><a href="/x">x</a></nav>
  <a href="/"><%= title %></a>
</nav>`, got)

	got, err = ExtractElement(page, "nav", "")
	require.NoError(t, err)
	assert.Equal(t, `<nav class="breadcrumbs"><a href="/">home</a></nav>`, got)

	_, err = ExtractElement(page, "header", "")
	assert.True(t, errors.Is(err, ErrElementNotFound), "missing element should be reported")

	_, err = ExtractElement(`<nav class="navbar"><div>`, "nav", "navbar")
	assert.True(t, errors.Is(err, ErrUnclosedElement), "unclosed element should be reported")
}

func TestSetActiveLink(t *testing.T) {
	got, err := SetActiveLink(navbar, "/messages")
	require.NoError(t, err)

	assert.Contains(t, got, `<a href="/">Dashboard</a>`, "previous active link should be cleared")
	assert.Contains(t, got, `<a href="/messages" class="active">Messages</a>`, "target link should be active")
	assert.Contains(t, got, `<a href="/logout" class="logout">Logout</a>`, "other classes should be kept")
	assert.Contains(t, got, `<h2>🤖 <%= client.user.tag %></h2>`, "directives should survive")

	again, err := SetActiveLink(got, "/messages")
	require.NoError(t, err)
	assert.Equal(t, got, again, "activation should be stable")

	_, err = SetActiveLink(navbar, "/missing")
	assert.True(t, errors.Is(err, ErrLinkNotFound))
}

func TestSetActiveLinkKeepsMarkupVerbatim(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		href     string
		want     string
	}{
		{
			name:     "already_active_is_untouched",
			fragment: `<nav><a href='/' class="active">Home &amp; more&nbsp;&copy;</a><a  href="/x" >X</a><br></nav>`,
			href:     "/",
			want:     `<nav><a href='/' class="active">Home &amp; more&nbsp;&copy;</a><a  href="/x" >X</a><br></nav>`,
		},
		{
			name:     "entities_and_quotes_survive_a_move",
			fragment: `<nav><a href='/' class='active'>Home&nbsp;&copy;</a><a href='/x'>X &amp; Y</a></nav>`,
			href:     "/x",
			want:     `<nav><a href='/'>Home&nbsp;&copy;</a><a href='/x' class="active">X &amp; Y</a></nav>`,
		},
		{
			name:     "other_classes_and_quote_style_kept",
			fragment: `<nav><a href="/" class='nav active'>A</a><a href="/b" class='nav'>B</a></nav>`,
			href:     "/b",
			want:     `<nav><a href="/" class='nav'>A</a><a href="/b" class='nav active'>B</a></nav>`,
		},
		{
			name:     "boolean_attributes_and_scripts",
			fragment: `<nav><button disabled>x</button><a href="/" class="active">A</a><a href="/b">B</a><script>if (a < b && c) {}</script></nav>`,
			href:     "/b",
			want:     `<nav><button disabled>x</button><a href="/">A</a><a href="/b" class="active">B</a><script>if (a < b && c) {}</script></nav>`,
		},
		{
			name:     "nested_links_in_document_order",
			fragment: `<nav><div><a href="/a">a</a></div><a href="/b" class="active">b</a><!-- <a href="/c"> --></nav>`,
			href:     "/a",
			want:     `<nav><div><a href="/a" class="active">a</a></div><a href="/b">b</a><!-- <a href="/c"> --></nav>`,
		},
		{
			name:     "directive_href",
			fragment: `<nav><a href="<%= base %>/x">x</a><a href="/y" class="active">y</a></nav>`,
			href:     "<%= base %>/x",
			want:     `<nav><a href="<%= base %>/x" class="active">x</a><a href="/y">y</a></nav>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SetActiveLink(tt.fragment, tt.href)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
